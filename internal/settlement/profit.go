package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/bet-tracker/internal/ledger"
)

// ProfitDecimal calcula o lucro/prejuízo de uma aposta a partir de (stake, odds, status):
// WON => stake*odds - stake, LOST => -stake, VOID e PENDING => 0.
func ProfitDecimal(r ledger.BetRecord) decimal.Decimal {
	stake := decimal.NewFromFloat(r.Stake)
	switch r.Status {
	case ledger.StatusWon:
		return stake.Mul(decimal.NewFromFloat(r.Odds)).Sub(stake)
	case ledger.StatusLost:
		return stake.Neg()
	default:
		return decimal.Zero
	}
}

// ReturnedDecimal é o valor devolvido ao apostador: WON => stake*odds, VOID => stake, resto => 0.
func ReturnedDecimal(r ledger.BetRecord) decimal.Decimal {
	stake := decimal.NewFromFloat(r.Stake)
	switch r.Status {
	case ledger.StatusWon:
		return stake.Mul(decimal.NewFromFloat(r.Odds))
	case ledger.StatusVoid:
		return stake
	default:
		return decimal.Zero
	}
}

func Profit(r ledger.BetRecord) float64   { return ProfitDecimal(r).InexactFloat64() }
func Returned(r ledger.BetRecord) float64 { return ReturnedDecimal(r).InexactFloat64() }
