package sink

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/frame"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/HsienYu/BreakingNewsEffects/pkg/network/httpx"
	"github.com/gofrs/uuid"
)

// clientQueueCap bounds per-viewer staleness: a slow viewer loses the
// oldest queued frames, never stalls the sender.
const clientQueueCap = 10

const shutdownTimeout = 2 * time.Second

// HttpSink serves an MJPEG stream over multipart/x-mixed-replace to any
// number of pull-style viewers. Frames are fanned out through bounded
// per-client queues fed by Send.
type HttpSink struct {
	conf    caster.Sink
	log     *logger.Logger
	handle  *Handle
	quality atomic.Int32

	mu      sync.Mutex
	clients map[string]chan []byte

	server   *httpx.Server
	done     chan struct{}
	stopOnce sync.Once
}

func NewHttpSink(conf caster.Sink, log *logger.Logger) *HttpSink {
	s := &HttpSink{
		conf:    conf,
		log:     log,
		handle:  newHandle(KindHTTP),
		clients: make(map[string]chan []byte),
		done:    make(chan struct{}),
	}
	s.quality.Store(int32(conf.JpegQuality))
	return s
}

func (s *HttpSink) Kind() Kind      { return KindHTTP }
func (s *HttpSink) Handle() *Handle { return s.handle }

func (s *HttpSink) Init() error {
	if err := s.conf.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	options := []httpx.Option{
		httpx.WithLogger(s.log),
		// the stream response never ends, it must not be write-limited
		httpx.WriteTimeout(0),
	}
	if s.conf.Https {
		options = append(options, httpx.WithTLS(s.conf.HttpsCert, s.conf.HttpsKey, s.conf.HttpsDomain))
	}
	server, err := httpx.NewServer(
		fmt.Sprintf(":%d", s.conf.FallbackPort),
		func(serv *httpx.Server) httpx.Handler {
			mux := serv.Mux()
			mux.HandleFunc("/", s.handleIndex)
			mux.HandleFunc("/stream.mjpg", s.handleStream)
			return mux
		},
		options...,
	)
	if err != nil {
		if httpx.IsPortBusyError(err) {
			return fmt.Errorf("%w: %v", ErrPortInUse, err)
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	s.server = server
	s.server.Run()
	scheme := "http"
	if s.conf.Https {
		scheme = "https"
	}
	s.handle.setHealth(Active)
	s.log.Info().Msgf("HTTP sink is up, stream at %v://%v/stream.mjpg", scheme, server.Addr)
	return nil
}

func (s *HttpSink) Send(f frame.Frame) error {
	if s.handle.Health() == Stopped {
		return ErrDisconnected
	}
	data, err := encodeJPEG(f, s.conf.Width, s.conf.Height, int(s.quality.Load()))
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	s.mu.Lock()
	for _, ch := range s.clients {
		enqueue(ch, data)
	}
	s.mu.Unlock()
	s.handle.markSent()
	return nil
}

// enqueue adds a frame to a client queue, evicting the oldest queued
// frame when full. Bounded staleness over exactness.
func enqueue(ch chan []byte, data []byte) {
	for {
		select {
		case ch <- data:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// SetQuality applies a live JPEG quality change from the config watcher.
func (s *HttpSink) SetQuality(q int) {
	if q >= 1 && q <= 100 {
		s.quality.Store(int32(q))
	}
}

func (s *HttpSink) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *HttpSink) Stop() {
	s.stopOnce.Do(func() {
		s.handle.setHealth(Stopped)
		close(s.done)
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := s.server.ShutdownWith(ctx); err != nil {
				s.log.Error().Err(err).Msg("http sink shutdown fail")
			}
		}
		s.log.Info().Msg("HTTP sink stopped")
	})
}

func (s *HttpSink) addClient() (string, chan []byte) {
	id := uuid.Must(uuid.NewV4()).String()
	ch := make(chan []byte, clientQueueCap)
	s.mu.Lock()
	s.clients[id] = ch
	s.mu.Unlock()
	return id, ch
}

func (s *HttpSink) removeClient(id string) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

func (s *HttpSink) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	id, ch := s.addClient()
	defer s.removeClient(id)
	s.log.Debug().Str("client", id).Msg("Stream viewer connected")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case data := <-ch:
			if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			if _, err := fmt.Fprint(w, "\r\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			s.log.Debug().Str("client", id).Msg("Stream viewer left")
			return
		case <-s.done:
			return
		}
	}
}

func (s *HttpSink) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, indexPage,
		s.conf.SenderName, s.conf.SenderName,
		s.conf.Width, s.conf.Height,
		s.conf.TargetFps, strconv.Itoa(s.ConnectionCount()))
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<h1>%s</h1>
<p>Resolution: %dx%d</p>
<p>Frame rate: %d fps</p>
<p>Viewers: %s</p>
<img src="/stream.mjpg" alt="Video Stream">
<p><a href="/stream.mjpg">Direct MJPEG stream link</a></p>
</body>
</html>
`
