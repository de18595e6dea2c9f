package events

// Evento publicado no tópico "ledger_changed" a cada mutação do ledger.
type LedgerChanged struct {
	Op       string   `json:"op"` // "insert" | "update" | "remove"
	BetIDs   []string `json:"bet_ids"`
	Size     int      `json:"size"`
	TsUnixMs int64    `json:"ts_unix_ms"`
}
