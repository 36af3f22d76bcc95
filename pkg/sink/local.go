package sink

import (
	"fmt"
	"sync"

	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/frame"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/HsienYu/BreakingNewsEffects/pkg/thread"
)

// Backend is one local zero-copy publishing mechanism (a shared GPU
// texture or a shared memory region managed by a platform SDK). The
// vendor bindings live behind this interface and are registered at
// link time by their platform build files.
type Backend interface {
	Name() string
	// Publish hands a BGRA buffer of w×h pixels to the backend. The
	// buffer must not be retained after the call returns.
	Publish(pix []byte, w, h int) error
	Close() error
}

// BackendFactory opens a backend publishing under the given sender name.
type BackendFactory func(name string, w, h int) (Backend, error)

var (
	backendMu sync.Mutex
	backends  = map[Kind]BackendFactory{}
)

// RegisterBackend makes a local backend available to the selector.
// Platform implementations call this from their init functions.
func RegisterBackend(kind Kind, f BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[kind] = f
}

// Capabilities is the set of local backends present on this host.
type Capabilities map[Kind]bool

// Probe reports which local backends are available. It is an explicit
// call with no process-wide side effects, invoked once by the selector.
func Probe() Capabilities {
	backendMu.Lock()
	defer backendMu.Unlock()
	caps := make(Capabilities, len(backends))
	for kind := range backends {
		caps[kind] = true
	}
	return caps
}

func backendFor(kind Kind) (BackendFactory, bool) {
	backendMu.Lock()
	defer backendMu.Unlock()
	f, ok := backends[kind]
	return f, ok
}

// LocalSink publishes frames through a same-host backend. Backends
// conventionally want BGRA with the rows mirrored, so the sink runs
// each frame through the codec with the configured format and flips
// before handing the buffer over on the main thread.
type LocalSink struct {
	kind   Kind
	conf   caster.Sink
	log    *logger.Logger
	handle *Handle

	format      frame.PixelFormat
	orientation frame.Orientation

	mu       sync.Mutex
	backend  Backend
	stopOnce sync.Once
}

func NewLocalSink(kind Kind, conf caster.Sink, log *logger.Logger) *LocalSink {
	return &LocalSink{kind: kind, conf: conf, log: log, handle: newHandle(kind)}
}

func (s *LocalSink) Kind() Kind      { return s.kind }
func (s *LocalSink) Handle() *Handle { return s.handle }

func (s *LocalSink) Init() error {
	if err := s.conf.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var err error
	if s.format, err = frame.ParsePixelFormat(s.conf.PixelFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if s.orientation, err = frame.ParseOrientation(s.conf.Orientation); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	factory, ok := backendFor(s.kind)
	if !ok {
		return fmt.Errorf("%w: no %v backend on this host", ErrBackendUnavailable, s.kind)
	}
	backend, err := factory(s.conf.SenderName, s.conf.Width, s.conf.Height)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	s.mu.Lock()
	s.backend = backend
	s.mu.Unlock()
	s.handle.setHealth(Active)
	s.log.Info().Msgf("Local sink %v (%v) is up", s.kind, backend.Name())
	return nil
}

func (s *LocalSink) Send(f frame.Frame) error {
	s.mu.Lock()
	backend := s.backend
	s.mu.Unlock()
	if backend == nil || s.handle.Health() == Stopped {
		return ErrDisconnected
	}

	conv, err := frame.Convert(f, s.conf.Width, s.conf.Height, s.format, s.orientation)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormatUnsupported, err)
	}
	if conv.Empty() {
		return nil
	}

	// backend SDKs want calls from the thread bound to the graphics context
	var publishErr error
	thread.MainMaybe(func() { publishErr = backend.Publish(conv.Pix, conv.W, conv.H) })
	if publishErr != nil {
		s.handle.setHealth(Degraded)
		return fmt.Errorf("%w: %v", ErrBackendRejected, publishErr)
	}
	s.handle.setHealth(Active)
	s.handle.markSent()
	return nil
}

// ConnectionCount reports 1 while the backend accepts frames; local
// transports have no notion of individual receivers.
func (s *LocalSink) ConnectionCount() int {
	if s.handle.Health() == Active || s.handle.Health() == Degraded {
		return 1
	}
	return 0
}

func (s *LocalSink) Stop() {
	s.stopOnce.Do(func() {
		s.handle.setHealth(Stopped)
		s.mu.Lock()
		backend := s.backend
		s.backend = nil
		s.mu.Unlock()
		if backend != nil {
			if err := backend.Close(); err != nil {
				s.log.Error().Err(err).Msgf("%v backend close fail", s.kind)
			}
		}
		s.log.Info().Msgf("Local sink %v stopped", s.kind)
	})
}
