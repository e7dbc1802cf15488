package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullPlan(t *testing.T) {
	text := `from df_itens
join df_cabecalho on "CHAVE DE ACESSO"
filter "QUANTIDADE" > 10
group "DESCRIÇÃO DO PRODUTO/SERVIÇO" sum "VALOR TOTAL"
sort valor desc
limit 5
resultado = "O top 5 é:\n{rows}"`

	p, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "df_itens", p.From)
	require.NotNil(t, p.Join)
	assert.Equal(t, "df_cabecalho", p.Join.Binding)
	assert.Equal(t, "CHAVE DE ACESSO", p.Join.Key)

	require.Len(t, p.Filters, 1)
	assert.Equal(t, "QUANTIDADE", p.Filters[0].Column)
	assert.Equal(t, OpGt, p.Filters[0].Op)
	assert.Equal(t, float64(10), p.Filters[0].Value)

	require.NotNil(t, p.Group)
	assert.Equal(t, AggSum, p.Group.Fn)

	require.NotNil(t, p.Sort)
	assert.True(t, p.Sort.Desc)
	assert.Equal(t, 5, p.Limit)

	assert.True(t, p.HasAnswer)
	assert.Equal(t, "O top 5 é:\n{rows}", p.Answer)
}

func TestParseQuotedColumnsKeepSpaces(t *testing.T) {
	p, err := Parse(`from df
pick max "VALOR UNITÁRIO"
resultado = "{row.VALOR UNITÁRIO}"`)
	require.NoError(t, err)
	require.NotNil(t, p.Pick)
	assert.True(t, p.Pick.Max)
	assert.Equal(t, "VALOR UNITÁRIO", p.Pick.Col)
}

func TestParsePortugueseAliases(t *testing.T) {
	p, err := Parse(`from df
agg soma "VALOR TOTAL"
resultado = "{value}"`)
	require.NoError(t, err)
	require.NotNil(t, p.Agg)
	assert.Equal(t, AggSum, p.Agg.Fn)
}

func TestParseSkipsCommentsAndBlankLines(t *testing.T) {
	p, err := Parse("\n# plano\nfrom df\n\nagg count\nresultado = \"{value}\"\n")
	require.NoError(t, err)
	assert.Equal(t, "df", p.From)
	require.NotNil(t, p.Agg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", "no from step"},
		{"step before from", "agg count", "must start with a from"},
		{"duplicate from", "from df\nfrom df", "duplicate from"},
		{"unknown step", "from df\nexplode", "unknown step"},
		{"unknown operator", `from df
filter "A" ~= 1`, "unknown operator"},
		{"bad limit", "from df\nlimit zero", "positive integer"},
		{"unterminated quote", `from df
filter "A > 1`, "unterminated quote"},
		{"agg needs column", "from df\nagg sum", "needs a column"},
		{"bad join", "from df\njoin other", "join expects"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseBareResultadoText(t *testing.T) {
	// Models sometimes forget the quotes around the template.
	p, err := Parse("from df\nagg count\nresultado = A contagem é {value}.")
	require.NoError(t, err)
	assert.True(t, p.HasAnswer)
	assert.Equal(t, "A contagem é {value}.", p.Answer)
}
