package stats

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/settlement"
)

// TopN é o tamanho máximo dos rankings de liga e mercado.
const TopN = 8

const (
	leagueLabelMax = 10
	marketLabelMax = 15
)

// LeagueRow é uma linha do ranking de ligas.
type LeagueRow struct {
	Name     string  `json:"name"`     // rótulo curto para o gráfico
	FullName string  `json:"fullName"` // chave de agrupamento (maiúsculas)
	WinRate  float64 `json:"winRate"`  // %, 1 casa
	Wins     int     `json:"wins"`
	Count    int     `json:"count"`
}

// MarketRow é uma linha do ranking de mercados.
type MarketRow struct {
	Name    string  `json:"name"` // rótulo curto
	Key     string  `json:"key"`  // mercado completo usado no agrupamento
	WinRate float64 `json:"winRate"`
	Profit  float64 `json:"profit"` // 2 casas
	Wins    int     `json:"wins"`
	Count   int     `json:"count"`
}

type group struct {
	key    string
	wins   int
	total  int
	profit decimal.Decimal
}

// groupBy agrupa as liquidadas preservando a ordem da primeira ocorrência de cada chave.
func groupBy(recs []ledger.BetRecord, keyOf func(ledger.BetRecord) string) []*group {
	var order []*group
	idx := map[string]*group{}
	for _, r := range settledOnly(recs) {
		k := keyOf(r)
		g, ok := idx[k]
		if !ok {
			g = &group{key: k, profit: decimal.Zero}
			idx[k] = g
			order = append(order, g)
		}
		g.total++
		if r.Status == ledger.StatusWon {
			g.wins++
		}
		g.profit = g.profit.Add(settlement.ProfitDecimal(r))
	}
	return order
}

func winRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(total))).Mul(hundred), 1)
}

// LeagueKey normaliza a liga para agrupamento ("epl" e "EPL" caem no mesmo grupo).
func LeagueKey(league string) string { return strings.ToUpper(league) }

// LeagueRanking ordena por taxa de acerto desc, desempate por quantidade desc, top 8.
func LeagueRanking(recs []ledger.BetRecord) []LeagueRow {
	groups := groupBy(recs, func(r ledger.BetRecord) string { return LeagueKey(r.League) })

	out := make([]LeagueRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, LeagueRow{
			Name:     truncate(g.key, leagueLabelMax, ".."),
			FullName: g.key,
			WinRate:  winRate(g.wins, g.total),
			Wins:     g.wins,
			Count:    g.total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// MarketKey é a chave de agrupamento do mercado: o texto completo sem espaços nas pontas.
// O truncamento fica só no rótulo, para não fundir mercados com o mesmo prefixo.
func MarketKey(market string) string { return strings.TrimSpace(market) }

// MarketRanking ordena por popularidade (quantidade desc), top 8.
func MarketRanking(recs []ledger.BetRecord) []MarketRow {
	groups := groupBy(recs, func(r ledger.BetRecord) string { return MarketKey(r.Market) })

	out := make([]MarketRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, MarketRow{
			Name:    truncate(g.key, marketLabelMax, "..."),
			Key:     g.key,
			WinRate: winRate(g.wins, g.total),
			Profit:  round(g.profit, 2),
			Wins:    g.wins,
			Count:   g.total,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

func truncate(s string, n int, suffix string) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + suffix
}
