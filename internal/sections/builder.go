// Package sections assembles the deterministic prompt bundle for each resume section kind:
// the system and user messages plus the single tool the model must call.
package sections

import (
	"fmt"

	"github.com/jonathan/resume-writer/internal/ingestion"
	"github.com/jonathan/resume-writer/internal/prompts"
	"github.com/jonathan/resume-writer/internal/schemas"
	"github.com/jonathan/resume-writer/internal/types"
)

// PromptBundle is everything the dispatcher needs to request one section.
type PromptBundle struct {
	Kind          types.SectionKind
	SystemMessage string
	UserMessage   string
	ToolName      string
	Shape         types.OutputShape
}

// Messages returns the chat message list: system first, then user.
func (b PromptBundle) Messages() []types.Message {
	return []types.Message{
		{Role: types.RoleSystem, Content: b.SystemMessage},
		{Role: types.RoleUser, Content: b.UserMessage},
	}
}

// Tools returns the single tool offered to the model.
func (b PromptBundle) Tools() []schemas.ToolSchema {
	return []schemas.ToolSchema{schemas.NewToolSchema(b.ToolName, b.Shape)}
}

type sectionTool struct {
	toolName string
	shape    types.OutputShape
}

var sectionTools = map[types.SectionKind]sectionTool{
	types.KindSummary:       {"generate_summary", types.ShapeScalar},
	types.KindEducation:     {"generate_education_description", types.ShapeArray},
	types.KindExperience:    {"generate_experience_description", types.ShapeArray},
	types.KindProject:       {"generate_project_description", types.ShapeArray},
	types.KindCertification: {"generate_certification_description", types.ShapeScalar},
	types.KindPublication:   {"generate_publication_description", types.ShapeArray},
}

// ToolName returns the stable tool name for a section kind.
func ToolName(kind types.SectionKind) string {
	return sectionTools[kind].toolName
}

// Shape returns the output shape produced for a section kind.
func Shape(kind types.SectionKind) types.OutputShape {
	return sectionTools[kind].shape
}

// Build validates the input and renders its prompt bundle.
func Build(input types.SectionInput) (PromptBundle, error) {
	if input == nil {
		return PromptBundle{}, &InputError{Kind: "section", Message: "input is required"}
	}
	kind := input.Kind()

	if err := types.ValidateSection(input); err != nil {
		return PromptBundle{}, &InputError{Kind: string(kind), Message: "validation failed", Cause: err}
	}

	job := ingestion.NormalizeJobDescription(input.TargetJob())
	if job == "" {
		return PromptBundle{}, &InputError{Kind: string(kind), Message: "jobDescription contains no text"}
	}

	var clauses clauseList
	switch in := input.(type) {
	case *types.SummaryInput:
		clauses = summaryClauses(in)
	case *types.EducationInput:
		clauses = educationClauses(in)
	case *types.ExperienceInput:
		clauses = experienceClauses(in)
	case *types.ProjectInput:
		clauses = projectClauses(in)
	case *types.CertificationInput:
		clauses = certificationClauses(in)
	case *types.PublicationInput:
		clauses = publicationClauses(in)
	default:
		return PromptBundle{}, &InputError{Kind: string(kind), Message: fmt.Sprintf("unsupported input type %T", input)}
	}
	clauses.field("for target job", job)

	catalog, err := prompts.Load()
	if err != nil {
		return PromptBundle{}, err
	}
	preamble, err := catalog.UserPreamble(string(kind))
	if err != nil {
		return PromptBundle{}, fmt.Errorf("failed to load user prompt: %w", err)
	}

	tool := sectionTools[kind]
	return PromptBundle{
		Kind:          kind,
		SystemMessage: catalog.SystemMessage(string(kind)),
		UserMessage:   clauses.sentence(preamble),
		ToolName:      tool.toolName,
		Shape:         tool.shape,
	}, nil
}

func summaryClauses(in *types.SummaryInput) clauseList {
	var c clauseList
	c.field("position", in.TargetPosition)
	c.field("company", in.TargetCompany)
	c.field("candidate name", in.FullName)
	c.field("summary hints", in.RawSummary)
	c.list("additional notes", in.RawDescription, "; ")
	return c
}

func educationClauses(in *types.EducationInput) clauseList {
	var c clauseList
	c.field("institution", in.Institution)
	c.field("degree", in.Degree)
	c.field("field of study", in.FieldOfStudy)
	c.field("location", in.Location)
	c.span("tenure", in.StartDate, in.EndDate)
	c.flag(in.Current, "currently enrolled")
	c.field("GPA", in.GPA)
	c.list("notes", in.RawDescription, "; ")
	c.list("achievements", in.Achievements, "; ")
	return c
}

func experienceClauses(in *types.ExperienceInput) clauseList {
	var c clauseList
	c.field("company", in.Company)
	c.field("position", in.Position)
	c.field("location", in.Location)
	c.span("tenure", in.StartDate, in.EndDate)
	c.flag(in.Current, "currently in role")
	c.list("technologies", in.Technologies, ", ")
	c.list("achievements", in.Achievements, "; ")
	c.list("notes", in.RawDescription, "; ")
	return c
}

func projectClauses(in *types.ProjectInput) clauseList {
	var c clauseList
	c.field("project", in.ProjectName)
	c.field("role", in.Role)
	c.field("organization", in.Organization)
	c.field("url", in.URL)
	c.span("duration", in.StartDate, in.EndDate)
	c.flag(in.Ongoing, "ongoing project")
	c.list("technologies", in.Technologies, ", ")
	c.list("achievements", in.Achievements, "; ")
	c.list("notes", in.RawDescription, "; ")
	return c
}

func certificationClauses(in *types.CertificationInput) clauseList {
	var c clauseList
	c.field("certification", in.CertificationName)
	c.field("issued by", in.Issuer)
	c.field("issue date", in.IssueDate)
	c.field("expires", in.ExpirationDate)
	c.field("url", in.CredentialURL)
	c.field("notes", in.RawDescription)
	return c
}

func publicationClauses(in *types.PublicationInput) clauseList {
	var c clauseList
	c.field("title", in.Title)
	c.field("publisher", in.Publisher)
	c.field("date", in.PublicationDate)
	c.list("authors", in.Authors, ", ")
	c.field("url", in.URL)
	c.field("notes", in.RawDescription)
	return c
}
