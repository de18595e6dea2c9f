package events

import "time"

// Evento publicado no tópico "bet_settled" quando uma aposta muda de resultado:
// sai de PENDING, troca de status final ou volta para PENDING (liquidação desfeita).
type BetSettled struct {
	BetID       string    `json:"bet_id"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	League      string    `json:"league"`
	Market      string    `json:"market"`
	MatchDate   string    `json:"match_date"`
	Odds        float64   `json:"odds"`
	Stake       float64   `json:"stake"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"` // WON | LOST | VOID | PENDING (desfeita)
	ResultScore string    `json:"result_score,omitempty"`
	Profit      float64   `json:"profit"`
	Source      string    `json:"source"` // "manual" | "ai_verify" | "auto_verify"
	SettledAt   time.Time `json:"settled_at"`
}
