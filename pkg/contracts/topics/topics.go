package topics

const (
	// Ledger
	BetSettled    = "bet_settled"
	LedgerChanged = "ledger_changed"

	// DLQs
	BetSettledDLQ = "bet_settled_dlq"

	// Redis Pub/Sub
	NotificationsChannel = "tracker_notifications"
)
