package synth

// Prompt building blocks. The worked examples mirror the question shapes
// users actually ask over fiscal-note exports: counts, maxima, top-N by
// group and sums.

const planGrammar = `LINGUAGEM DO PLANO (uma instrução por linha, nomes de colunas entre aspas duplas):
  from <tabela>
  join <tabela> on "<coluna chave>"
  filter "<coluna>" <op> <valor>        (op: == != > < >= <= contains)
  group "<coluna>" <fn> "<coluna>"      (fn: count sum avg min max)
  agg <fn> ["<coluna>"]
  pick max|min "<coluna>"
  sort "<coluna>" asc|desc              (use: sort valor desc após group)
  limit <n>
  resultado = "<frase final com {value}, {count}, {rows} ou {row.COLUNA}>"

`

const planRules = `REGRAS CRÍTICAS E OBRIGATÓRIAS:
1. Responda APENAS com o plano. NÃO inclua comentários, explicações, import ou print.
2. A última linha DEVE atribuir a resposta final à variável resultado.
3. Use os nomes de colunas EXATAMENTE como listados acima.

`

const planExamplesSingle = `---
EXEMPLOS DE GABARITO (use como guia para responder à pergunta do usuário):

# GABARITO 1: pergunta sobre CONTAGEM
PERGUNTA: "Quantos itens existem?" ou "Quantas linhas tem o dataset?"
PLANO:
from df
agg count
resultado = "A contagem de linhas é {value}."

# GABARITO 2: pergunta sobre VALOR MÁXIMO
PERGUNTA: "Qual o produto mais caro?"
PLANO:
from df
pick max "VALOR UNITÁRIO"
resultado = "O produto com maior valor unitário é '{row.DESCRIÇÃO DO PRODUTO/SERVIÇO}' com valor de R$ {row.VALOR UNITÁRIO}."

# GABARITO 3: pergunta sobre TOP N
PERGUNTA: "Mostre o top 5 produtos por quantidade"
PLANO:
from df
group "DESCRIÇÃO DO PRODUTO/SERVIÇO" sum "QUANTIDADE"
sort valor desc
limit 5
resultado = "O top 5 produtos por quantidade são:\n{rows}"

# GABARITO 4: pergunta sobre SOMA TOTAL
PERGUNTA: "Qual a soma dos valores?"
PLANO:
from df
agg sum "VALOR TOTAL"
resultado = "A soma total dos valores é {value}."

# GABARITO 5: pergunta sobre CONTAGEM DE NOTAS
PERGUNTA: "Quantas notas fiscais foram emitidas?"
PLANO:
from df
agg count
resultado = "Foram emitidas {value} notas fiscais."
`

const planExamplePair = `INSTRUÇÃO OBRIGATÓRIA: comece o plano juntando as tabelas:
from df_itens
join df_cabecalho on "CHAVE DE ACESSO"

---
EXEMPLO DE GABARITO:

PERGUNTA: "Qual o nome do fornecedor do item mais caro?"
PLANO:
from df_itens
join df_cabecalho on "CHAVE DE ACESSO"
pick max "VALOR UNITÁRIO"
resultado = "O fornecedor do item mais caro é '{row.RAZÃO SOCIAL EMITENTE_y}', e o item é '{row.DESCRIÇÃO DO PRODUTO/SERVIÇO}'."
`

const goRules = `REGRAS CRÍTICAS E OBRIGATÓRIAS:
1. Gere APENAS o corpo de uma função Go. NÃO inclua package, import, func, print ou comentários.
2. As tabelas já existem como *tables.Table (campos: Name, Columns, Rows []map[string]any).
3. Funções auxiliares disponíveis: tables.AsFloat(v) (float64, bool) e tables.AsString(v) string.
4. O resultado final DEVE ser atribuído à variável string resultado.

`

const goExamplesSingle = `---
EXEMPLOS DE GABARITO:

# GABARITO 1: pergunta sobre CONTAGEM
PERGUNTA: "Quantas linhas tem o dataset?"
CÓDIGO GERADO:
contagem := df.NumRows()
resultado = fmt.Sprintf("A contagem de linhas é %d.", contagem)

# GABARITO 2: pergunta sobre SOMA TOTAL
PERGUNTA: "Qual a soma dos valores?"
CÓDIGO GERADO:
soma := 0.0
for _, linha := range df.Rows {
	if v, ok := tables.AsFloat(linha["VALOR TOTAL"]); ok {
		soma += v
	}
}
resultado = fmt.Sprintf("A soma total dos valores é %s.", strconv.FormatFloat(soma, 'f', -1, 64))
`

const goExamplePair = `---
EXEMPLO DE GABARITO:

PERGUNTA: "Quantos itens existem?"
CÓDIGO GERADO:
resultado = fmt.Sprintf("Existem %d itens.", df_itens.NumRows())
`
