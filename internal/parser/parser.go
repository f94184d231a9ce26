// Package parser extracts a monetary amount and a category from a raw
// earnings declaration using a fixed grammar.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/farmstats/farmbot/internal/category"
)

// Amount grammar: a decimal number with optional dot separators immediately
// followed by a unit token. The digit string is taken literally with dots
// stripped; the unit token is consumed but carries no multiplier, so
// "1.250 MIL" parses to 1250.
var amountRe = regexp.MustCompile(`(?i)([\d.]+)\s*(MIL|MILHAO|MILHÃO|MILHOES|MILHÕES)`)

// Category grammar: the VICENT literal with an optional service prefix and
// suffix annotation, or the text after a comma up to a user mention or end of
// string.
var categoryRe = regexp.MustCompile(`(?i)(?:SERVIÇO\s*)?(VICENT)(?:\s*—\s*CLUCKIN BELL)?|,\s*(.+?)(?:\s*<@|$)`)

// Parse never fails: absence of a match yields amount 0 and an Undefined
// category. A VICENT declaration with no amount gets the sentinel amount 1 so
// the event is not dropped; its real value comes from the Vicent answer
// schedule, not the amount grammar.
func Parse(raw string) (int64, category.Category) {
	content := strings.ToUpper(strings.TrimSpace(raw))

	var amount int64
	if m := amountRe.FindStringSubmatch(content); m != nil {
		digits := strings.ReplaceAll(m[1], ".", "")
		if v, err := strconv.ParseInt(digits, 10, 64); err == nil {
			amount = v
		}
	}

	name := ""
	if m := categoryRe.FindStringSubmatch(content); m != nil {
		if m[1] != "" {
			name = strings.TrimSpace(m[1])
		} else if m[2] != "" {
			name = strings.TrimSpace(m[2])
		}
	} else if strings.Contains(content, "VICENT") {
		name = "VICENT"
	}

	cat := category.Resolve(name)
	if cat == category.Vicent && amount == 0 {
		amount = 1
	}

	return amount, cat
}
