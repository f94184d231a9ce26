// Package category holds the static registry of known earning categories:
// their canonical names, display tags and bonus schedules.
package category

import "github.com/farmstats/farmbot/internal/normalize"

// Category is a canonical category key (uppercase, diacritic-free). Known
// categories are the constants below; any other canonical string is an
// unregistered category and Undefined means no category was recognized.
type Category string

const (
	Undefined Category = "INDEFINIDO"

	Vicent              Category = "VICENT"
	CayoPerico          Category = "CAYO PERICO"
	CassinoDiamond      Category = "CASSINO DIAMOND"
	BancoFleeca         Category = "ASSALTO AO BANCO FLEECA"
	FugaDaPrisao        Category = "FUGA DA PRISAO"
	LaboratorioHumane   Category = "INVASAO AO LABORATORIO HUMANE"
	FinanciamentoSerieA Category = "FINANCIAMENTO SERIE A"
	PacificStandard     Category = "ASSALTO AO BANCO PACIFIC STANDARD"
)

// "CASSINO" is an alias: every lookup and ledger bucket uses CASSINO DIAMOND.
const cassinoAlias = "CASSINO"

// Display tags are opaque external group references (Discord role IDs).
var displayTags = map[Category]string{
	CayoPerico:          "1408190721847988275",
	CassinoDiamond:      "1408211090612944906",
	BancoFleeca:         "1408440723392565391",
	FugaDaPrisao:        "1408440828631847034",
	LaboratorioHumane:   "1408440909003100212",
	FinanciamentoSerieA: "1408441029245534281",
	PacificStandard:     "1408441127459229868",
	Vicent:              "1408211381622280242",
}

// Elite-bonus flat amounts per participant.
const (
	EliteBonusHigh int64 = 100000
	EliteBonusLow  int64 = 50000
)

// Vicent single-answer payouts.
const (
	VicentHostFirstTime int64 = 750000
	VicentHostRepeat    int64 = 500000
	VicentSupporter     int64 = 50000
)

var flatEliteBonus = map[Category]int64{
	BancoFleeca:         EliteBonusHigh,
	FugaDaPrisao:        EliteBonusHigh,
	LaboratorioHumane:   EliteBonusHigh,
	FinanciamentoSerieA: EliteBonusHigh,
	PacificStandard:     EliteBonusHigh,
	CassinoDiamond:      EliteBonusLow,
}

// Resolve canonicalizes a surface category name, applying the CASSINO alias.
// An empty canonical form resolves to Undefined.
func Resolve(name string) Category {
	n := normalize.Text(name)
	switch n {
	case "":
		return Undefined
	case cassinoAlias:
		return CassinoDiamond
	}
	return Category(n)
}

// DisplayTag returns the registered display tag for c, if any.
func (c Category) DisplayTag() (string, bool) {
	tag, ok := displayTags[c]
	return tag, ok
}

// FlatEliteBonus returns the flat per-participant elite bonus for c, if c is
// in the flat elite-bonus set.
func FlatEliteBonus(c Category) (int64, bool) {
	amount, ok := flatEliteBonus[c]
	return amount, ok
}

// HasVariableMode reports whether c requires a mode clarification before the
// elite bonus is paid.
func HasVariableMode(c Category) bool {
	return c == CayoPerico
}

// ModeBonus maps a mode input to the tier-selected bonus. Unrecognized input
// falls back to the lower tier.
func ModeBonus(mode string) int64 {
	if normalize.Text(mode) == "DIFICIL" {
		return EliteBonusHigh
	}
	return EliteBonusLow
}
