package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func TestHub_NotifySendsRefresh(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register("web:abc", conn)
		close(registered)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unregister("web:abc", conn)
				return
			}
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	<-registered

	hub.Notify("web:other")
	hub.Notify("web:abc")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if string(msg) != refreshMessage {
		t.Errorf("Expected %q, got %q", refreshMessage, msg)
	}
	if hub.Connections("web:abc") != 1 {
		t.Errorf("Expected 1 connection, got %d", hub.Connections("web:abc"))
	}
}

func TestHub_StalledWriteDropsClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	// A deadline already in the past fails the write the way a stalled peer would.
	hub.writeWait = -time.Second
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register("web:slow", conn)
		close(registered)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	<-registered

	done := make(chan struct{})
	go func() {
		hub.Notify("web:slow")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Notify to return despite the failing client")
	}

	if hub.Connections("web:slow") != 0 {
		t.Errorf("Expected the failing client to be removed, got %d", hub.Connections("web:slow"))
	}
}
