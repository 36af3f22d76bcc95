// Package status exposes the caster's runtime counters over HTTP: a
// one-shot JSON endpoint for scripts and a websocket feed pushing a
// snapshot every second for dashboards.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/cast"
	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/HsienYu/BreakingNewsEffects/pkg/network/httpx"
	"github.com/gorilla/websocket"
)

const (
	pushInterval = time.Second
	writeWait    = 5 * time.Second
)

type Server struct {
	*httpx.Server

	stats func() cast.Stats
	log   *logger.Logger
	done  chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*httpx.Request) bool { return true },
}

func NewServer(conf caster.Status, stats func() cast.Stats, log *logger.Logger) (*Server, error) {
	s := &Server{stats: stats, log: log, done: make(chan struct{})}
	srv, err := httpx.NewServer(
		fmt.Sprintf(":%d", conf.Port),
		func(serv *httpx.Server) httpx.Handler {
			mux := serv.Mux()
			mux.HandleFunc("/api/status", s.handleStatus)
			mux.HandleFunc("/api/events", s.handleEvents)
			return mux
		},
		httpx.WithPortRoll(true),
		httpx.WithLogger(log),
		// websocket clients hold the response open
		httpx.WriteTimeout(0),
	)
	if err != nil {
		return nil, err
	}
	s.Server = srv
	return s, nil
}

func (s *Server) Run() {
	s.log.Info().Msgf("status feed on %v", s.Addr)
	s.Server.Run()
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	return s.ShutdownWith(ctx)
}

func (s *Server) String() string { return "status feed" }

func (s *Server) handleStatus(w httpx.ResponseWriter, _ *httpx.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats()); err != nil {
		s.log.Debug().Err(err).Msg("status write fail")
	}
}

func (s *Server) handleEvents(w httpx.ResponseWriter, r *httpx.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("ws upgrade fail")
		return
	}
	defer conn.Close()
	s.log.Debug().Msgf("ws client %v", conn.RemoteAddr())

	// drain control frames so close handshakes are noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case <-closed:
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s.stats()); err != nil {
				s.log.Debug().Err(err).Msgf("ws client %v gone", conn.RemoteAddr())
				return
			}
		}
	}
}
