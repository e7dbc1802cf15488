package router

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvagent/internal/table"
)

func storeWith(tables map[string]int) *table.Store {
	s := table.NewStore()
	var list []*table.Table
	for name, n := range tables {
		rows := make([]table.Row, n)
		for i := range rows {
			rows[i] = table.Row{"A": float64(i)}
		}
		list = append(list, table.New(name, []string{"A"}, rows))
	}
	s.Replace(list)
	return s
}

func TestRouteSingleTableAnyQuestion(t *testing.T) {
	s := storeWith(map[string]int{"orders.csv": 3})
	for _, q := range []string{"", "Quantas linhas existem?", "qual o fornecedor?"} {
		a := Route(q, s)
		assert.Equal(t, Single, a.Kind, "question %q", q)
		assert.Equal(t, []string{"orders.csv"}, a.Chosen)
		assert.Equal(t, map[string]string{"df": "orders.csv"}, a.Bindings())
	}
}

func TestRouteUnsupportedSizes(t *testing.T) {
	for _, n := range []int{0, 3, 5} {
		tables := map[string]int{}
		for i := 0; i < n; i++ {
			tables[fmt.Sprintf("t%d.csv", i)] = 1
		}
		a := Route("pergunta", storeWith(tables))
		assert.Equal(t, Unsupported, a.Kind, "store size %d", n)
		assert.NotEmpty(t, a.Reason)
		assert.Nil(t, a.Bindings())
	}
}

func TestRoutePairRoles(t *testing.T) {
	s := storeWith(map[string]int{"header.csv": 2, "items.csv": 10})

	tests := []struct {
		name     string
		question string
		chosen   []string
	}{
		{"no keyword defaults to detail", "Qual a média geral?", []string{"items.csv"}},
		{"detail keyword", "Qual o produto mais caro?", []string{"items.csv"}},
		{"header keyword", "Qual o fornecedor com maior montante recebido?", []string{"header.csv"}},
		{"both keywords", "Qual o fornecedor do item mais caro?", []string{"items.csv", "header.csv"}},
		{"keywords are case-insensitive", "QUAL O FORNECEDOR?", []string{"header.csv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Route(tt.question, s)
			require.Equal(t, Pair, a.Kind)
			assert.Equal(t, "items.csv", a.Detail)
			assert.Equal(t, "header.csv", a.Header)
			assert.Equal(t, tt.chosen, a.Chosen)
		})
	}
}

func TestRoutePairBindingsFollowRoles(t *testing.T) {
	s := storeWith(map[string]int{"notas.csv": 2, "produtos.csv": 10})
	a := Route("qual o fornecedor do item mais caro?", s)
	require.Equal(t, Pair, a.Kind)
	assert.Equal(t, map[string]string{
		"df_itens":     "produtos.csv",
		"df_cabecalho": "notas.csv",
	}, a.Bindings())
}

func TestRouteRowCountTieIsDeterministic(t *testing.T) {
	s := storeWith(map[string]int{"b.csv": 4, "a.csv": 4})
	a := Route("", s)
	require.Equal(t, Pair, a.Kind)
	assert.Equal(t, "a.csv", a.Detail)
	assert.Equal(t, "b.csv", a.Header)
}
