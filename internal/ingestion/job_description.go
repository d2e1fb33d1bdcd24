package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlTagPattern = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][a-zA-Z0-9]*(\s[^>]*)?/?>`)

// blockSelectors end a line of text when markup is flattened.
const blockSelectors = "p, li, div, br, tr, h1, h2, h3, h4, h5, h6, section, article"

// NormalizeJobDescription flattens a pasted job description into a single line of prose.
// Markup copied from job boards is stripped; whitespace runs collapse to one space.
func NormalizeJobDescription(text string) string {
	if LooksLikeHTML(text) {
		if flattened, err := HTMLToText(text); err == nil {
			text = flattened
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// LooksLikeHTML reports whether text contains at least one HTML tag.
func LooksLikeHTML(text string) bool {
	return htmlTagPattern.MatchString(text)
}

// HTMLToText returns the visible text of an HTML fragment, one block element per line.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	return cleanWhitespace(doc.Text()), nil
}

// cleanWhitespace trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
