package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"csvagent/internal/table"
)

func TestLoadSummaryListsTablesAndFailures(t *testing.T) {
	ok := table.New("itens.csv", []string{"PRODUTO"}, []table.Row{
		{"PRODUTO": "caneta"},
		{"PRODUTO": "lápis"},
	})
	report := &table.LoadReport{Results: []table.LoadResult{
		{File: "itens.csv", Table: ok},
		{File: "quebrado.csv", Err: errors.New("record on line 3: wrong number of fields")},
	}}

	got := loadSummary(report)

	assert.Contains(t, got, "1 tabela(s) carregada(s).")
	assert.Contains(t, got, "itens.csv: 2 linhas, 1 colunas")
	assert.Contains(t, got, "FALHA quebrado.csv: record on line 3")
}

func TestLoadSummaryWithoutFailures(t *testing.T) {
	ok := table.New("notas.csv", []string{"CHAVE DE ACESSO"}, nil)
	report := &table.LoadReport{Results: []table.LoadResult{
		{File: "notas.csv", Table: ok},
	}}

	got := loadSummary(report)

	assert.Contains(t, got, "notas.csv: 0 linhas, 1 colunas")
	assert.NotContains(t, got, "FALHA")
}
