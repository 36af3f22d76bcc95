package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/cast"
	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/gorilla/websocket"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	stats := func() cast.Stats {
		return cast.Stats{SenderName: "test", Sink: "null", Health: "active", TargetFps: 30}
	}
	s, err := NewServer(caster.Status{Enabled: true, Port: 29090}, stats, logger.Default())
	if err != nil {
		t.Fatalf("status server: %v", err)
	}
	s.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	time.Sleep(50 * time.Millisecond)
	return s
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer(t)
	resp, err := http.Get(fmt.Sprintf("http://%v/api/status", s.Addr))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	var st cast.Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.SenderName != "test" || st.Sink != "null" {
		t.Errorf("unexpected snapshot: %+v", st)
	}
}

func TestEventsFeedPushes(t *testing.T) {
	s := testServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%v/api/events", s.Addr), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var st cast.Stats
	if err := conn.ReadJSON(&st); err != nil {
		t.Fatalf("read: %v", err)
	}
	if st.Health != "active" {
		t.Errorf("health = %q, want active", st.Health)
	}
}
