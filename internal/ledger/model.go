package ledger

import "strings"

// Status é o estado de liquidação de uma aposta.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusWon     Status = "WON"
	StatusLost    Status = "LOST"
	StatusVoid    Status = "VOID"
)

// ParseStatus normaliza o texto recebido (ex.: "won", " LOST ") e informa se é um dos quatro estados conhecidos.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusWon, StatusLost, StatusVoid:
		return st, true
	}
	return st, false
}

// BetRecord é uma previsão registrada no ledger.
// O JSON segue o blob persistido (mesmos nomes de campos do app original).
type BetRecord struct {
	ID          string  `json:"id"`
	HomeTeam    string  `json:"homeTeam"`
	AwayTeam    string  `json:"awayTeam"`
	League      string  `json:"league"`
	MatchDate   string  `json:"matchDate"` // YYYY-MM-DD
	Market      string  `json:"market"`    // ex: "Over 2.5 Goals"
	Odds        float64 `json:"odds"`      // odd decimal
	Stake       float64 `json:"stake"`     // unidades (1-10)
	Status      Status  `json:"status"`
	Analysis    string  `json:"analysis"`
	ResultScore string  `json:"resultScore,omitempty"`
	CreatedAt   int64   `json:"createdAt"` // epoch millis, chave de ordenação das séries
}

// Settled indica se a aposta já tem resultado (status diferente de PENDING).
func (r BetRecord) Settled() bool { return r.Status != StatusPending }

// Validate rejeita registros que não podem entrar no ledger.
func (r BetRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &ValidationError{Err: ErrMissingID}
	}
	if !(r.Stake > 0) {
		return &ValidationError{ID: r.ID, Err: ErrInvalidStake}
	}
	if !(r.Odds > 0) {
		return &ValidationError{ID: r.ID, Err: ErrInvalidOdds}
	}
	if _, ok := ParseStatus(string(r.Status)); !ok {
		return &ValidationError{ID: r.ID, Err: ErrInvalidStatus}
	}
	return nil
}
