// Package sink implements the output targets of the frame distribution
// pipeline: local shared-texture/shared-memory backends with a UDP or
// HTTP MJPEG network fallback, picked once at startup by the selector.
package sink

import (
	"sync/atomic"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/frame"
	"github.com/gofrs/uuid"
)

// Kind names a sink implementation.
type Kind string

const (
	KindSharedTexture Kind = "shared-texture"
	KindSharedMemory  Kind = "shared-memory"
	KindUDP           Kind = "udp"
	KindHTTP          Kind = "http"
	KindNull          Kind = "null"
)

// Health is the lifecycle state of an active sink.
type Health int32

const (
	Initializing Health = iota
	Active
	Degraded
	Stopped
)

func (h Health) String() string {
	switch h {
	case Initializing:
		return "initializing"
	case Active:
		return "active"
	case Degraded:
		return "degraded"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Sink is a destination capable of receiving a sequence of frames.
//
// Init failures are not fatal, the selector moves on to the next
// candidate. Send failures do not tear the sink down, the caller may
// retry with the next frame. Stop releases all resources and is safe to
// call from any goroutine, repeatedly.
type Sink interface {
	Kind() Kind
	Handle() *Handle
	Init() error
	Send(f frame.Frame) error
	ConnectionCount() int
	Stop()
}

// Handle is the identity of one activated sink: health state plus
// send accounting, updated atomically from the render goroutine and
// read by status queries.
type Handle struct {
	ID string

	kind    Kind
	health  atomic.Int32
	sent    atomic.Uint64
	started time.Time
}

func newHandle(kind Kind) *Handle {
	h := &Handle{
		ID:      uuid.Must(uuid.NewV4()).String(),
		kind:    kind,
		started: time.Now(),
	}
	h.health.Store(int32(Initializing))
	return h
}

func (h *Handle) Kind() Kind            { return h.kind }
func (h *Handle) Health() Health        { return Health(h.health.Load()) }
func (h *Handle) Sent() uint64          { return h.sent.Load() }
func (h *Handle) Uptime() time.Duration { return time.Since(h.started) }

func (h *Handle) setHealth(v Health) { h.health.Store(int32(v)) }
func (h *Handle) markSent()          { h.sent.Add(1) }
