package report

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Terminal renders Markdown for the console. Front matter is dropped and
// the input is returned unchanged if rendering fails.
func Terminal(markdown string, width int) string {
	body := StripFrontMatter(markdown)
	if strings.TrimSpace(body) == "" {
		return body
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("ascii"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return body
	}

	out, err := r.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimRight(out, "\n")
}

// StripFrontMatter removes a leading "---" delimited YAML block
func StripFrontMatter(markdown string) string {
	if !strings.HasPrefix(markdown, "---\n") {
		return markdown
	}
	end := strings.Index(markdown[4:], "\n---\n")
	if end < 0 {
		return markdown
	}
	return strings.TrimLeft(markdown[4+end+5:], "\n")
}
