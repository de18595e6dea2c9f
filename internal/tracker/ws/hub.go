package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

// ClientMsg é o que o cliente pode mandar: só "ping" por enquanto.
type ClientMsg struct {
	Type string `json:"type"`
}

// Hub mantém as conexões WebSocket abertas e repassa notificações a todas.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu    sync.RWMutex
	conns map[*websocket.Conn]*sync.Mutex // mutex de escrita por conexão

	OnConnect    func() // métricas
	OnDisconnect func()
}

// NewHub cria o hub com a política de origem recebida.
func NewHub(allowOrigin func(r *http.Request) bool, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		log:      log,
		conns:    make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWS registra a conexão e responde pings até o cliente desconectar.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wmu := &sync.Mutex{}
	h.mu.Lock()
	h.conns[conn] = wmu
	h.mu.Unlock()
	if h.OnConnect != nil {
		h.OnConnect()
	}

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "ping" {
			wmu.Lock()
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
			wmu.Unlock()
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	if h.OnDisconnect != nil {
		h.OnDisconnect()
	}
}

// Broadcast envia a notificação para todos os clientes conectados.
func (h *Hub) Broadcast(n events.Notification) {
	b, err := json.Marshal(n)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c, wmu := range h.conns {
		wmu.Lock()
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Warn("ws write failed", zap.Error(err))
		}
		wmu.Unlock()
	}
}

// Len devolve o número de conexões abertas.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
