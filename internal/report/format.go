package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatNumber renders n with pt-BR thousands grouping ("1.500").
func FormatNumber(n int64) string {
	return ptBR.Sprintf("%d", n)
}

// FormatValue renders n with its magnitude tier: millions (plural from two
// million), a single million, thousands, or the plain integer.
func FormatValue(n int64) string {
	switch {
	case n >= 2000000:
		return FormatNumber(n) + " MILHÕES"
	case n >= 1000000:
		return FormatNumber(n) + " MILHÃO"
	case n >= 1000:
		return FormatNumber(n) + " MIL"
	default:
		return FormatNumber(n)
	}
}
