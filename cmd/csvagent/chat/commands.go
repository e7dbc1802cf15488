package chat

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"csvagent/internal/table"
)

const helpText = `Comandos disponíveis:
  /carregar <caminho>   carrega um arquivo CSV, diretório ou arquivo .zip
                        (substitui todas as tabelas carregadas)
  /tabelas              lista as tabelas carregadas e suas colunas
  /auditoria            mostra o registro de auditoria da última pergunta
  /historico            mostra as perguntas e respostas da sessão
  /ajuda                mostra esta ajuda
  /sair                 encerra o programa

Qualquer outra linha é tratada como uma pergunta sobre os dados.`

// handleCommand runs a slash command. Load is asynchronous; everything
// else answers immediately from session state.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/sair", "/quit", "/exit":
		return m, tea.Quit

	case "/ajuda", "/help":
		m.messages = append(m.messages, message{roleSystem, helpText})

	case "/carregar", "/load":
		if arg == "" {
			m.messages = append(m.messages, message{roleSystem, "Uso: /carregar <caminho>"})
			break
		}
		m.messages = append(m.messages, message{roleSystem, fmt.Sprintf("Carregando %s...", arg)})
		m.waiting = true
		m.refreshViewport()
		session, ctx := m.session, m.ctx
		load := func() tea.Msg {
			report, err := session.Load(ctx, arg)
			return loadedMsg{path: arg, report: report, err: err}
		}
		return m, tea.Batch(load, m.spinner.Tick)

	case "/tabelas", "/tables":
		m.messages = append(m.messages, message{roleSystem, m.tablesText()})

	case "/auditoria", "/audit":
		m.messages = append(m.messages, message{roleSystem, m.auditText()})

	case "/historico", "/history":
		m.messages = append(m.messages, message{roleSystem, m.historyText()})

	default:
		m.messages = append(m.messages, message{roleSystem, fmt.Sprintf("Comando desconhecido: %s (use /ajuda)", cmd)})
	}

	m.refreshViewport()
	return m, nil
}

func (m Model) tablesText() string {
	if m.session.Tables.Len() == 0 {
		return "Nenhuma tabela carregada. Use /carregar <caminho>."
	}
	var b strings.Builder
	for _, name := range m.session.Tables.Names() {
		t, _ := m.session.Tables.Get(name)
		stats := table.Summarize(t)
		fmt.Fprintf(&b, "%s — %d linhas, %d colunas (%d numéricas)\n",
			name, stats.TotalRows, stats.TotalColumns, stats.NumericColumns)
		fmt.Fprintf(&b, "  colunas: %s\n", strings.Join(t.Columns, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) auditText() string {
	audit := m.session.LastAudit()
	if audit == nil {
		return "Nenhuma pergunta foi feita ainda."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Pergunta: %s\n", audit.Question)
	fmt.Fprintf(&b, "Tabelas: %v (detalhe=%s cabeçalho=%s)\n", audit.Chosen, audit.Detail, audit.Header)
	if audit.Snippet != "" {
		fmt.Fprintf(&b, "Plano:\n%s\n", audit.Snippet)
	}
	if audit.Outcome.Success {
		fmt.Fprintf(&b, "Execução: sucesso — %s", audit.Outcome.Result)
	} else if audit.Outcome.Err != "" {
		fmt.Fprintf(&b, "Execução: falha — %s", audit.Outcome.Err)
	} else {
		b.WriteString("Execução: não realizada")
	}
	return b.String()
}

func (m Model) historyText() string {
	history := m.session.History()
	if len(history) == 0 {
		return "Histórico vazio."
	}
	var b strings.Builder
	for i, e := range history {
		fmt.Fprintf(&b, "%d. P: %s\n   R: %s\n", i+1, e.Question, e.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}
