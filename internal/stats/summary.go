// Package stats agrega o ledger em indicadores e séries para o dashboard.
// Todas as funções são puras sobre um snapshot: nada é guardado entre chamadas.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/settlement"
)

// Summary são os KPIs gerais do ledger.
type Summary struct {
	TotalBets     int     `json:"totalBets"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Voids         int     `json:"voids"`
	Pending       int     `json:"pending"`
	WinRate       float64 `json:"winRate"` // % sobre as liquidadas
	TotalStaked   float64 `json:"totalStaked"`
	TotalReturned float64 `json:"totalReturned"`
	Profit        float64 `json:"profit"`
	ROI           float64 `json:"roi"` // %
}

var hundred = decimal.NewFromInt(100)

// Summarize calcula os KPIs. Apostas PENDING contam só em TotalBets e Pending.
func Summarize(recs []ledger.BetRecord) Summary {
	s := Summary{TotalBets: len(recs)}
	staked, returned := decimal.Zero, decimal.Zero
	settled := 0

	for _, r := range recs {
		switch r.Status {
		case ledger.StatusPending:
			s.Pending++
			continue
		case ledger.StatusWon:
			s.Wins++
		case ledger.StatusLost:
			s.Losses++
		case ledger.StatusVoid:
			s.Voids++
		}
		settled++
		staked = staked.Add(decimal.NewFromFloat(r.Stake))
		returned = returned.Add(settlement.ReturnedDecimal(r))
	}

	profit := returned.Sub(staked)
	s.TotalStaked = staked.InexactFloat64()
	s.TotalReturned = returned.InexactFloat64()
	s.Profit = profit.InexactFloat64()
	if staked.IsPositive() {
		s.ROI = profit.Div(staked).Mul(hundred).InexactFloat64()
	}
	if settled > 0 {
		s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(decimal.NewFromInt(int64(settled))).Mul(hundred).InexactFloat64()
	}
	return s
}

// Dashboard junta KPIs e todos os recortes usados na tela de estatísticas.
type Dashboard struct {
	Summary     Summary      `json:"summary"`
	ProfitCurve []Point      `json:"profitCurve"`
	ROITrend    []Point      `json:"roiTrend"`
	Leagues     []LeagueRow  `json:"leagues"`
	Markets     []MarketRow  `json:"markets"`
	Monthly     []MonthPoint `json:"monthly"`
}

// Build recalcula o dashboard inteiro a partir do snapshot.
// loc define o fuso usado para rotular datas e meses (nil => UTC).
func Build(recs []ledger.BetRecord, loc *time.Location) Dashboard {
	return Dashboard{
		Summary:     Summarize(recs),
		ProfitCurve: ProfitCurve(recs, loc),
		ROITrend:    ROITrend(recs, loc),
		Leagues:     LeagueRanking(recs),
		Markets:     MarketRanking(recs),
		Monthly:     MonthlyBuckets(recs, loc),
	}
}

func settledOnly(recs []ledger.BetRecord) []ledger.BetRecord {
	out := make([]ledger.BetRecord, 0, len(recs))
	for _, r := range recs {
		if r.Settled() {
			out = append(out, r)
		}
	}
	return out
}

func round(d decimal.Decimal, places int32) float64 { return d.Round(places).InexactFloat64() }
