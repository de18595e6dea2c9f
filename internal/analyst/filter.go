package analyst

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// fixtures do dia: nada de futsal, e-sports, simulações ou base
	fixtureBanned = []string{
		"futsal", "esport", "fifa", "e-football", "simulated", "srl",
		"virtual", "beach", "indoor", "women", "u17", "u19",
	}
	// pernas do acumulador: também descarta times inventados pelo modelo
	selectionBanned = []string{
		"futsal", "esport", "fifa", "srl", "simulated", "placeholder", "team a", "team b",
	}
)

func banned(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// FilterFixtures mantém só os jogos da data pedida e fora da lista de exclusão.
func FilterFixtures(in []Fixture, date string) []Fixture {
	out := make([]Fixture, 0, len(in))
	for _, f := range in {
		if f.Date != date || banned(f.text(), fixtureBanned) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FilterSelections remove pernas banidas ou com matchDate diferente de date.
// Perna sem matchDate é mantida.
func FilterSelections(in []BetSelection, date string) []BetSelection {
	out := make([]BetSelection, 0, len(in))
	for _, s := range in {
		if banned(s.text(), selectionBanned) {
			continue
		}
		if s.MatchDate != "" && s.MatchDate != date {
			continue
		}
		out = append(out, s)
	}
	return out
}

// TotalOdds é o produto das odds das pernas.
func TotalOdds(sel []BetSelection) float64 {
	total := decimal.NewFromInt(1)
	for _, s := range sel {
		total = total.Mul(decimal.NewFromFloat(s.Odds))
	}
	return total.InexactFloat64()
}
