package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/bet-tracker/internal/ledger"
	"github.com/radieske/bet-tracker/internal/settlement"
)

// Point é um ponto das séries acumuladas (um por aposta liquidada).
type Point struct {
	Date      string  `json:"date"` // ex: "Mar 2"
	CreatedAt int64   `json:"createdAt"`
	Value     float64 `json:"value"`
}

// MonthPoint é o lucro líquido de um mês.
type MonthPoint struct {
	Name  string  `json:"name"` // ex: "Mar '24"
	Value float64 `json:"value"`
}

// chronological devolve as liquidadas ordenadas por createdAt (estável para empates).
func chronological(recs []ledger.BetRecord) []ledger.BetRecord {
	out := settledOnly(recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

func at(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc)
}

func dayLabel(ms int64, loc *time.Location) string { return at(ms, loc).Format("Jan 2") }

func monthLabel(ms int64, loc *time.Location) string { return at(ms, loc).Format("Jan '06") }

// ProfitCurve é o lucro acumulado ao longo do tempo.
// Monotônica no tempo, não no valor; pontos da mesma data não são agrupados.
func ProfitCurve(recs []ledger.BetRecord, loc *time.Location) []Point {
	ordered := chronological(recs)
	out := make([]Point, 0, len(ordered))
	acc := decimal.Zero
	for _, r := range ordered {
		acc = acc.Add(settlement.ProfitDecimal(r))
		out = append(out, Point{
			Date:      dayLabel(r.CreatedAt, loc),
			CreatedAt: r.CreatedAt,
			Value:     acc.InexactFloat64(),
		})
	}
	return out
}

// ROITrend é o ROI acumulado (lucro acumulado / stake acumulada * 100), arredondado em 2 casas.
func ROITrend(recs []ledger.BetRecord, loc *time.Location) []Point {
	ordered := chronological(recs)
	out := make([]Point, 0, len(ordered))
	profit, staked := decimal.Zero, decimal.Zero
	for _, r := range ordered {
		profit = profit.Add(settlement.ProfitDecimal(r))
		staked = staked.Add(decimal.NewFromFloat(r.Stake))

		var roi float64
		if staked.IsPositive() {
			roi = round(profit.Div(staked).Mul(hundred), 2)
		}
		out = append(out, Point{
			Date:      dayLabel(r.CreatedAt, loc),
			CreatedAt: r.CreatedAt,
			Value:     roi,
		})
	}
	return out
}

// MonthlyBuckets soma o lucro por (mês, ano) do createdAt, na ordem em que cada mês aparece no ledger.
// Meses sem apostas liquidadas não aparecem.
func MonthlyBuckets(recs []ledger.BetRecord, loc *time.Location) []MonthPoint {
	type bucket struct {
		name string
		sum  decimal.Decimal
	}
	var order []*bucket
	idx := map[string]*bucket{}

	for _, r := range settledOnly(recs) {
		t := at(r.CreatedAt, loc)
		key := t.Format("2006-01")
		b, ok := idx[key]
		if !ok {
			b = &bucket{name: monthLabel(r.CreatedAt, loc), sum: decimal.Zero}
			idx[key] = b
			order = append(order, b)
		}
		b.sum = b.sum.Add(settlement.ProfitDecimal(r))
	}

	out := make([]MonthPoint, 0, len(order))
	for _, b := range order {
		out = append(out, MonthPoint{Name: b.name, Value: round(b.sum, 2)})
	}
	return out
}
