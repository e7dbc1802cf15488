// Package chat provides the interactive TUI for csvagent: a message
// viewport, a text input, and slash commands for loading data and
// inspecting what the pipeline did.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"csvagent/internal/pipeline"
	"csvagent/internal/table"
)

type role int

const (
	roleUser role = iota
	roleAgent
	roleSystem
)

type message struct {
	role role
	text string
}

// answerMsg carries a finished pipeline run back into the update loop.
// The audit record stays on the session; /auditoria reads it from there.
type answerMsg struct {
	answer string
}

// loadedMsg carries the result of a /carregar command.
type loadedMsg struct {
	path   string
	report *table.LoadReport
	err    error
}

// Model is the bubbletea model for the chat interface.
type Model struct {
	ctx     context.Context
	session *pipeline.Session

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	messages []message
	waiting  bool
	ready    bool
	width    int
	height   int
}

// New creates the chat model around an existing session.
func New(ctx context.Context, session *pipeline.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Faça uma pergunta sobre os dados (ou /ajuda)"
	ti.Focus()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		ctx:     ctx,
		session: session,
		input:   ti,
		spinner: sp,
	}
	m.messages = append(m.messages, message{roleSystem, welcomeText(session)})
	return m
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, session *pipeline.Session) error {
	p := tea.NewProgram(New(ctx, session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				break
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				break
			}
			m.input.Reset()
			return m.handleInput(line)
		}

	case answerMsg:
		m.waiting = false
		m.messages = append(m.messages, message{roleAgent, msg.answer})
		m.refreshViewport()

	case loadedMsg:
		m.waiting = false
		if msg.err != nil {
			m.messages = append(m.messages, message{roleSystem, fmt.Sprintf("Falha ao carregar %s: %v", msg.path, msg.err)})
		} else {
			m.messages = append(m.messages, message{roleSystem, loadSummary(msg.report)})
		}
		m.refreshViewport()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleInput dispatches a submitted line: slash commands run locally,
// anything else goes through the pipeline asynchronously.
func (m Model) handleInput(line string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(line, "/") {
		return m.handleCommand(line)
	}

	m.messages = append(m.messages, message{roleUser, line})
	m.waiting = true
	m.refreshViewport()

	session, ctx := m.session, m.ctx
	ask := func() tea.Msg {
		answer, _ := session.Ask(ctx, line)
		return answerMsg{answer: answer}
	}
	return m, tea.Batch(ask, m.spinner.Tick)
}

func welcomeText(session *pipeline.Session) string {
	var b strings.Builder
	b.WriteString("csvagent — perguntas em linguagem natural sobre arquivos CSV.\n")
	if session.Tables.Len() > 0 {
		fmt.Fprintf(&b, "%d tabela(s) carregada(s): %s\n", session.Tables.Len(), strings.Join(session.Tables.Names(), ", "))
		b.WriteString("Exemplos de perguntas:\n")
		b.WriteString("  • Quantas notas fiscais foram emitidas?\n")
		b.WriteString("  • Qual o fornecedor com maior montante recebido?\n")
		b.WriteString("  • Qual o produto mais caro?\n")
	} else {
		b.WriteString("Nenhuma tabela carregada. Use /carregar <caminho> para começar.\n")
	}
	b.WriteString("Digite /ajuda para ver os comandos.")
	return b.String()
}

func loadSummary(report *table.LoadReport) string {
	var b strings.Builder
	tables := report.Tables()
	fmt.Fprintf(&b, "%d tabela(s) carregada(s).", len(tables))
	for _, t := range tables {
		fmt.Fprintf(&b, "\n  %s: %d linhas, %d colunas", t.Name, t.NumRows(), t.NumColumns())
	}
	for _, f := range report.Failed() {
		fmt.Fprintf(&b, "\n  FALHA %s: %v", f.File, f.Err)
	}
	return b.String()
}
