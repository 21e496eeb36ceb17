package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderNotice boxes a user-facing message so it stands out in the terminal.
// The first line of msg becomes the title.
func RenderNotice(msg string, width int) string {
	if width <= 0 {
		width = 72
	}

	title, body, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	var b strings.Builder
	b.WriteString(noticeTitleStyle.Width(width).Render(title))
	if body = strings.TrimSpace(body); body != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(body))
	}
	return noticeStyle.Render(b.String())
}

// RenderStatus colours a status word green when ok and red otherwise.
func RenderStatus(ok bool, text string) string {
	if ok {
		return activeStyle.Render(text)
	}
	return errorStyle.Render(text)
}

// RenderDim renders secondary text.
func RenderDim(text string) string {
	return dimStyle.Render(text)
}
