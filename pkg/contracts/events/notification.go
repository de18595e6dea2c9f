package events

// Tipos de notificação exibidos ao usuário.
const (
	NotifySuccess = "success"
	NotifyInfo    = "info"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

// Notification é enviada via Redis Pub/Sub e repassada aos clientes WebSocket.
type Notification struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Type    string `json:"type"`
}
