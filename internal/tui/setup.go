package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldKhojURL = iota
	fieldVaultDir
	fieldAPIKey
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldKhojURL:  "Khoj URL:",
	fieldVaultDir: "Obsidian Vault Directory:",
	fieldAPIKey:   "OpenAI API Key (optional, enables chat):",
}

type SetupModel struct {
	inputs []textinput.Model
	focus  int
	error  string
	width  int
	height int
}

// NewSetupModel prefills the form with the current settings.
func NewSetupModel(khojURL, vaultDir, apiKey string) SetupModel {
	url := textinput.New()
	url.Placeholder = "http://localhost:8000"
	url.Width = 60
	url.SetValue(khojURL)

	dir := textinput.New()
	dir.Placeholder = "/path/to/your/obsidian/vault"
	dir.Width = 60
	dir.SetValue(vaultDir)

	key := textinput.New()
	key.Placeholder = "sk-..."
	key.Width = 60
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.SetValue(apiKey)

	m := SetupModel{inputs: []textinput.Model{url, dir, key}}
	m.setFocus(fieldKhojURL)
	return m
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil

		case "shift+tab", "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil

		case "enter":
			khojURL := strings.TrimSpace(m.inputs[fieldKhojURL].Value())
			dir := strings.TrimSpace(m.inputs[fieldVaultDir].Value())
			apiKey := strings.TrimSpace(m.inputs[fieldAPIKey].Value())

			if khojURL == "" {
				m.error = "Khoj URL is required"
				return m, nil
			}
			if dir == "" {
				m.error = "Obsidian directory is required"
				return m, nil
			}

			m.error = ""
			return m, func() tea.Msg {
				return SetupSubmitMsg{
					KhojURL:      khojURL,
					VaultDir:     dir,
					OpenAIAPIKey: apiKey,
				}
			}
		}

		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case SetupErrorMsg:
		m.error = msg.Error

	default:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	}

	return m, cmd
}

func (m *SetupModel) setFocus(field int) {
	m.focus = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("khojlink - Setup") + "\n\n")
	b.WriteString("Point khojlink at your Khoj backend and Obsidian vault.\n")
	b.WriteString("Leave the OpenAI key empty to keep chat disabled.\n\n")

	for i, input := range m.inputs {
		label := fieldLabels[i]
		if m.focus == i {
			label = activeStyle.Render("> " + label)
		} else {
			label = "  " + label
		}
		b.WriteString(label + "\n")
		b.WriteString(inputBoxStyle.Render(input.View()) + "\n\n")
	}

	if m.error != "" {
		b.WriteString(errorStyle.Render("Error: "+m.error) + "\n\n")
	}

	b.WriteString(helpStyle.Render("tab switch field  enter submit  esc quit"))

	return b.String()
}
