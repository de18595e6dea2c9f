package dto

type VerifyReq struct {
	BetID     string `json:"betId,omitempty"`
	HomeTeam  string `json:"homeTeam"`
	AwayTeam  string `json:"awayTeam"`
	League    string `json:"league"`
	Market    string `json:"market"`
	MatchDate string `json:"matchDate"` // YYYY-MM-DD
}

type VerifyResp struct {
	Status    string `json:"status"` // WON | LOST | VOID | PENDING
	Score     string `json:"score"`
	Reasoning string `json:"reasoning,omitempty"`
}

const (
	StatusWon     = "WON"
	StatusLost    = "LOST"
	StatusVoid    = "VOID"
	StatusPending = "PENDING"
)
