package types

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a chat-completion message list.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
