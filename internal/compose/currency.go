package compose

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// nonCurrencyKeywords suppress currency formatting: a question about
// counts, rankings or quantities is not asking for money.
var nonCurrencyKeywords = []string{"quantas", "contagem", "top", "quantidade"}

// numeralRe matches the first integer-or-decimal numeral in a result
// string. A lone decimal point has no digit and never matches.
var numeralRe = regexp.MustCompile(`\d+\.?\d*`)

// AnnotateCurrency rewrites the first numeral in text as Brazilian
// currency unless the question signals a non-monetary intent. Any parse
// problem leaves the text byte-identical; this path never fails.
func AnnotateCurrency(question, text string) string {
	q := strings.ToLower(question)
	for _, k := range nonCurrencyKeywords {
		if strings.Contains(q, k) {
			return text
		}
	}

	loc := numeralRe.FindStringIndex(text)
	if loc == nil {
		return text
	}
	v, err := strconv.ParseFloat(text[loc[0]:loc[1]], 64)
	if err != nil {
		return text
	}
	return text[:loc[0]] + FormatBRL(v) + text[loc[1]:]
}

// FormatBRL renders a value in Brazilian currency convention: "R$" prefix,
// dot thousands separator, comma decimal separator, two decimal places.
// The grouping is done by hand so the output does not depend on any
// locale being installed.
func FormatBRL(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	return "R$ " + sign + strings.Join(groups, ".") + "," + frac
}
