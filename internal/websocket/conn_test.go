package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// The clock stream writes ticks from one goroutine while the action
// reader answers pings from another. Both paths go through Conn, which
// must serialize them; writing to a raw gorilla connection from two
// goroutines panics the process.
func TestConnSerializesConcurrentWriters(t *testing.T) {
	const (
		writers          = 4
		messagesPerWrite = 25
	)

	upgrader := websocket.Upgrader{}
	done := make(chan error, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			done <- err
			return
		}
		conn := Wrap(raw)
		defer conn.Close()

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < messagesPerWrite; j++ {
					if err := conn.WriteTyped(TickResponse{Event: EventTick, RemainingSeconds: float64(j)}); err != nil {
						return
					}
				}
			}()
		}
		wg.Wait()
		done <- nil
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	for i := 0; i < writers*messagesPerWrite; i++ {
		var msg TickResponse
		if err := client.ReadJSON(&msg); err != nil {
			t.Fatalf("read message %d: %v", i, err)
		}
		if msg.Event != EventTick {
			t.Fatalf("message %d: event = %q, want %q", i, msg.Event, EventTick)
		}
	}

	if err := <-done; err != nil {
		t.Fatalf("server upgrade: %v", err)
	}
}

func TestConnWriteError(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := Wrap(raw)
		defer conn.Close()
		conn.WriteError("unknown action: fly")
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	var msg ErrorResponse
	if err := client.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Event != EventError {
		t.Fatalf("event = %q, want %q", msg.Event, EventError)
	}
	if msg.Error != "unknown action: fly" {
		t.Fatalf("error = %q", msg.Error)
	}
}
