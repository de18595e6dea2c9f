package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radieske/bet-tracker/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func waitConns(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d conns, want %d", h.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(func(*http.Request) bool { return true }, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	a, b := dial(t, srv), dial(t, srv)
	defer a.Close()
	defer b.Close()
	waitConns(t, h, 2)

	h.Broadcast(events.Notification{ID: "1", Message: "Prediction deleted", Type: events.NotifyInfo})

	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got events.Notification
		if err := c.ReadJSON(&got); err != nil {
			t.Fatalf("read: %v", err)
		}
		if got.Message != "Prediction deleted" || got.Type != events.NotifyInfo {
			t.Fatalf("got %+v", got)
		}
	}
}

func TestHubPingAndDisconnect(t *testing.T) {
	h := NewHub(func(*http.Request) bool { return true }, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	if err := c.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong map[string]string
	if err := c.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong = %v err=%v", pong, err)
	}

	c.Close()
	waitConns(t, h, 0)
}
