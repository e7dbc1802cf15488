// Package router implements stage 0 of the pipeline: deciding which loaded
// table(s) can answer a question and labeling their roles. It is pure
// decision logic: no model call, no I/O.
package router

import (
	"strings"

	"csvagent/internal/logging"
	"csvagent/internal/table"
)

// Kind tags a routing decision.
type Kind int

const (
	// Single means exactly one table is loaded and chosen unconditionally.
	Single Kind = iota
	// Pair means two tables are loaded and the keyword heuristic picked
	// between them.
	Pair
	// Unsupported means the store holds neither 1 nor 2 tables.
	Unsupported
)

// Assignment is the router's output: the tables the later stages may see
// and their semantic roles. Recomputed per question, never stored.
type Assignment struct {
	Kind Kind

	// Chosen lists the tables to bind, detail first when both are needed.
	Chosen []string

	// Detail is the items-like table (more rows), Header the document-like
	// one. For a single-table store Detail carries that table's name.
	Detail string
	Header string

	// Reason explains an Unsupported decision.
	Reason string
}

// Bindings maps the conventional binding names later stages use to the
// table names this assignment resolved. One chosen table always binds as
// "df"; the two-table case binds "df_itens" and "df_cabecalho" to the
// role-resolved names, never to hardcoded file names.
func (a Assignment) Bindings() map[string]string {
	if a.Kind == Unsupported || len(a.Chosen) == 0 {
		return nil
	}
	if len(a.Chosen) == 1 {
		return map[string]string{"df": a.Chosen[0]}
	}
	return map[string]string{"df_itens": a.Detail, "df_cabecalho": a.Header}
}

// Keyword sets scanned against the lowercased question. The header set
// signals document/supplier questions, the detail set item-level ones.
var (
	headerKeywords = []string{"fornecedor", "fornecedores", "nota fiscal", "notas", "montante recebido"}
	detailKeywords = []string{"item", "itens", "produto", "produtos", "quantidade", "valor unitário", "valor total"}
)

const unsupportedReason = "o roteamento funciona apenas com 1 ou 2 arquivos carregados"

// Route selects the table(s) for a question.
//
// One table: chosen unconditionally. Two tables: the one with more rows is
// the detail table, the other the header table (on a row-count tie the
// lexicographically smaller name is the detail table, so the decision is
// deterministic); the keyword scan then picks which role(s) the question
// needs, defaulting to the detail table. Anything else is unsupported.
func Route(question string, store *table.Store) Assignment {
	names := store.Names()

	switch len(names) {
	case 1:
		logging.Routing("single table %q chosen for question", names[0])
		return Assignment{Kind: Single, Chosen: []string{names[0]}, Detail: names[0]}

	case 2:
		detail, header := splitRoles(names[0], names[1], store)
		a := Assignment{Kind: Pair, Detail: detail, Header: header}

		q := strings.ToLower(question)
		needsHeader := containsAny(q, headerKeywords)
		needsDetail := containsAny(q, detailKeywords)

		switch {
		case needsHeader && needsDetail:
			a.Chosen = []string{detail, header}
		case needsHeader:
			a.Chosen = []string{header}
		case needsDetail:
			a.Chosen = []string{detail}
		default:
			a.Chosen = []string{detail}
		}
		logging.Routing("pair routed: detail=%q header=%q chosen=%v", detail, header, a.Chosen)
		return a

	default:
		logging.Routing("unsupported store size %d", len(names))
		return Assignment{Kind: Unsupported, Reason: unsupportedReason}
	}
}

// splitRoles labels the table with more rows as detail. Ties fall to the
// lexicographically smaller name.
func splitRoles(a, b string, store *table.Store) (detail, header string) {
	ta, _ := store.Get(a)
	tb, _ := store.Get(b)
	switch {
	case ta.NumRows() > tb.NumRows():
		return a, b
	case tb.NumRows() > ta.NumRows():
		return b, a
	case a < b:
		return a, b
	default:
		return b, a
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
