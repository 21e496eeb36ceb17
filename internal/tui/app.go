package tui

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SearchFunc runs a query and returns results ready for display.
type SearchFunc func() ([]SearchResult, error)

type SearchModel struct {
	query    string
	run      SearchFunc
	spinner  spinner.Model
	loading  bool
	results  []SearchResult
	selected int
	error    string
	width    int
	height   int
	vaultDir string
}

func NewSearchModel(query, vaultDir string, run SearchFunc) SearchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = activeStyle

	return SearchModel{
		query:    query,
		run:      run,
		spinner:  s,
		loading:  run != nil,
		vaultDir: vaultDir,
	}
}

func (m SearchModel) Init() tea.Cmd {
	if m.run == nil {
		return nil
	}
	run := m.run
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		results, err := run()
		if err != nil {
			return SearchErrorMsg{Error: err.Error()}
		}
		return SearchResultsMsg{Results: results}
	})
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.results)-1 {
				m.selected++
			}

		case "enter":
			if len(m.results) > 0 && m.selected < len(m.results) {
				result := m.results[m.selected]
				if err := openInObsidian(m.vaultDir, result.Path); err != nil {
					m.error = err.Error()
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SearchResultsMsg:
		m.loading = false
		m.results = msg.Results
		m.selected = 0

	case SearchErrorMsg:
		m.loading = false
		m.error = msg.Error
	}

	return m, nil
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("khojlink") + " ")
	b.WriteString(dimStyle.Render("\""+m.query+"\"") + "\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " " + dimStyle.Render("Searching Khoj...") + "\n")
		return b.String()
	}

	if m.error != "" {
		b.WriteString(errorStyle.Render("Error: "+m.error) + "\n")
		if len(m.results) == 0 {
			return b.String()
		}
		b.WriteString("\n")
	}

	if len(m.results) == 0 {
		b.WriteString(dimStyle.Render("No results found") + "\n")
		b.WriteString("\n" + helpStyle.Render("q quit"))
		return b.String()
	}

	width := 76
	if m.width > 8 && m.width-4 < width {
		width = m.width - 4
	}

	for i, result := range m.results {
		isSelected := i == m.selected

		var line strings.Builder

		if isSelected {
			line.WriteString(selectedStyle.Render("> "))
		} else {
			line.WriteString("  ")
		}

		scoreStr := fmt.Sprintf("[%.2f]", result.Score)
		line.WriteString(scoreStyle.Render(scoreStr) + " ")

		line.WriteString(pathStyle.Render(result.Path))
		b.WriteString(line.String() + "\n")

		indent := "    "
		if result.Heading != "" {
			b.WriteString(indent + headingStyle.Render(truncate(result.Heading, width)) + "\n")
		}

		snippetLines := wrapText(result.Snippet, width, 3)
		for _, line := range snippetLines {
			b.WriteString(indent + snippetStyle.Render(line) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ navigate  enter open in Obsidian  q quit"))

	return b.String()
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func wrapText(s string, width, maxLines int) []string {
	// Clean up the text
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.TrimSpace(s)

	// Collapse multiple spaces
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}

	if len(s) == 0 {
		return nil
	}

	var lines []string
	for len(s) > 0 && len(lines) < maxLines {
		if len(s) <= width {
			lines = append(lines, s)
			break
		}

		// Find a good break point
		breakAt := width
		for breakAt > width/2 && s[breakAt] != ' ' {
			breakAt--
		}
		if s[breakAt] != ' ' {
			breakAt = width // No space found, just cut
		}

		lines = append(lines, strings.TrimSpace(s[:breakAt]))
		s = strings.TrimSpace(s[breakAt:])
	}

	// Add ellipsis if truncated
	if len(s) > 0 && len(lines) == maxLines {
		lastLine := lines[maxLines-1]
		if len(lastLine) > width-3 {
			lastLine = lastLine[:width-3]
		}
		lines[maxLines-1] = lastLine + "..."
	}

	return lines
}

// obsidianURI builds the obsidian://open link for a note relative to the vault.
func obsidianURI(vaultDir, filePath string) string {
	vaultName := filepath.Base(vaultDir)
	file := strings.TrimSuffix(filepath.ToSlash(filePath), ".md")

	return fmt.Sprintf("obsidian://open?vault=%s&file=%s",
		url.PathEscape(vaultName), url.PathEscape(file))
}

func openInObsidian(vaultDir, filePath string) error {
	uri := obsidianURI(vaultDir, filePath)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", uri)
	case "linux":
		cmd = exec.Command("xdg-open", uri)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", uri)
	default:
		return fmt.Errorf("opening notes is not supported on %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", filePath, err)
	}
	return nil
}
