package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWrapText_ShortText(t *testing.T) {
	lines := wrapText("Hello world", 80, 3)

	if len(lines) != 1 {
		t.Errorf("expected 1 line, got %d", len(lines))
	}

	if lines[0] != "Hello world" {
		t.Errorf("expected 'Hello world', got '%s'", lines[0])
	}
}

func TestWrapText_LongText(t *testing.T) {
	text := "This is a longer piece of text that should wrap to multiple lines when displayed"
	lines := wrapText(text, 40, 3)

	if len(lines) < 2 {
		t.Errorf("expected multiple lines, got %d", len(lines))
	}

	for i, line := range lines {
		if len(line) > 40 {
			t.Errorf("line %d exceeds width: len=%d", i, len(line))
		}
	}
}

func TestWrapText_MaxLines(t *testing.T) {
	text := strings.Repeat("word ", 100)
	lines := wrapText(text, 40, 3)

	if len(lines) > 3 {
		t.Errorf("expected max 3 lines, got %d", len(lines))
	}

	// Last line should have ellipsis
	lastLine := lines[len(lines)-1]
	if !strings.HasSuffix(lastLine, "...") {
		t.Errorf("expected last line to end with '...', got '%s'", lastLine)
	}
}

func TestWrapText_NewlinesRemoved(t *testing.T) {
	text := "Line one\nLine two\nLine three"
	lines := wrapText(text, 80, 3)

	for _, line := range lines {
		if strings.Contains(line, "\n") {
			t.Error("expected newlines to be removed")
		}
	}
}

func TestWrapText_EmptyString(t *testing.T) {
	lines := wrapText("", 80, 3)

	if lines != nil {
		t.Errorf("expected nil for empty string, got %v", lines)
	}
}

func TestWrapText_WhitespaceCollapsed(t *testing.T) {
	text := "Multiple   spaces    here"
	lines := wrapText(text, 80, 3)

	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	if strings.Contains(lines[0], "  ") {
		t.Errorf("expected whitespace to be collapsed, got '%s'", lines[0])
	}
}

func TestTruncate_ShortString(t *testing.T) {
	result := truncate("Hello", 10)
	if result != "Hello" {
		t.Errorf("expected 'Hello', got '%s'", result)
	}
}

func TestTruncate_LongString(t *testing.T) {
	result := truncate("Hello World", 8)
	if result != "Hello..." {
		t.Errorf("expected 'Hello...', got '%s'", result)
	}
}

func TestTruncate_NewlinesReplaced(t *testing.T) {
	result := truncate("Hello\nWorld", 20)
	if strings.Contains(result, "\n") {
		t.Error("expected newlines to be replaced")
	}
}

func TestObsidianURI_EscapesVaultAndFile(t *testing.T) {
	got := obsidianURI("/home/me/My Vault", "notes/a b.md")
	want := "obsidian://open?vault=My%20Vault&file=notes%2Fa%20b"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSearchModel_ResultsAndNavigation(t *testing.T) {
	m := NewSearchModel("tea", "/vault", func() ([]SearchResult, error) { return nil, nil })
	if !m.loading {
		t.Fatal("expected model to start loading")
	}

	updated, _ := m.Update(SearchResultsMsg{Results: []SearchResult{
		{Rank: 1, Score: 0.9, Path: "drinks/tea.md", Heading: "Tea", Snippet: "green tea"},
		{Rank: 2, Score: 0.4, Path: "drinks/coffee.md", Snippet: "espresso"},
	}})
	m = updated.(SearchModel)
	if m.loading {
		t.Error("expected loading to stop after results")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(SearchModel)
	if m.selected != 1 {
		t.Errorf("expected selection 1, got %d", m.selected)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(SearchModel)
	if m.selected != 1 {
		t.Errorf("expected selection to stay at 1, got %d", m.selected)
	}

	view := m.View()
	if !strings.Contains(view, "drinks/coffee.md") || !strings.Contains(view, "green tea") {
		t.Errorf("expected results in view, got %q", view)
	}
}

func TestSearchModel_Error(t *testing.T) {
	m := NewSearchModel("tea", "/vault", nil)
	updated, _ := m.Update(SearchErrorMsg{Error: "connection refused"})
	m = updated.(SearchModel)

	if !strings.Contains(m.View(), "connection refused") {
		t.Errorf("expected error in view, got %q", m.View())
	}
}

func TestSetupModel_RequiresURLAndVault(t *testing.T) {
	m := NewSetupModel("", "", "")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if cmd != nil {
		t.Error("expected no submit without a Khoj URL")
	}
	if m.error != "Khoj URL is required" {
		t.Errorf("unexpected error %q", m.error)
	}

	m = NewSetupModel("http://localhost:8000", "", "")
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(SetupModel)
	if cmd != nil {
		t.Error("expected no submit without a vault directory")
	}
	if m.error != "Obsidian directory is required" {
		t.Errorf("unexpected error %q", m.error)
	}
}

func TestSetupModel_SubmitAllowsEmptyKey(t *testing.T) {
	m := NewSetupModel(" http://localhost:8000 ", "/vault", "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected submit command")
	}

	msg, ok := cmd().(SetupSubmitMsg)
	if !ok {
		t.Fatalf("expected SetupSubmitMsg, got %T", cmd())
	}
	if msg.KhojURL != "http://localhost:8000" || msg.VaultDir != "/vault" || msg.OpenAIAPIKey != "" {
		t.Errorf("unexpected submit %+v", msg)
	}
}

func TestSetupModel_TabCyclesFocus(t *testing.T) {
	m := NewSetupModel("", "", "")
	for want := 1; want <= fieldCount; want++ {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(SetupModel)
		if m.focus != want%fieldCount {
			t.Errorf("expected focus %d, got %d", want%fieldCount, m.focus)
		}
	}
}

func TestRenderNotice_SplitsTitle(t *testing.T) {
	out := RenderNotice("Failed to configure Khoj backend.\n\nError: boom", 60)
	if !strings.Contains(out, "Failed to configure Khoj backend.") || !strings.Contains(out, "Error: boom") {
		t.Errorf("unexpected notice %q", out)
	}
}

func TestRenderStatus_KeepsText(t *testing.T) {
	for _, ok := range []bool{true, false} {
		if out := RenderStatus(ok, "connected"); !strings.Contains(out, "connected") {
			t.Errorf("RenderStatus(%v) lost its text: %q", ok, out)
		}
	}
}
