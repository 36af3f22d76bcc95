package sink

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/frame"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/HsienYu/BreakingNewsEffects/pkg/network/socket"
	"github.com/HsienYu/BreakingNewsEffects/pkg/wire"
)

// writeDeadline keeps a congested socket from stalling the render tick.
const writeDeadline = 10 * time.Millisecond

// UdpSink pushes JPEG frames to a fixed destination as datagrams framed
// by the wire protocol. There is no acknowledgment and no retry, loss
// shows up only in the peer's reassembly accounting.
type UdpSink struct {
	conf    caster.Sink
	log     *logger.Logger
	handle  *Handle
	quality atomic.Int32

	mu       sync.Mutex
	conn     *net.UDPConn
	framer   *wire.Framer
	stopOnce sync.Once
}

func NewUdpSink(conf caster.Sink, log *logger.Logger) *UdpSink {
	s := &UdpSink{conf: conf, log: log, handle: newHandle(KindUDP), framer: wire.NewFramer()}
	s.quality.Store(int32(conf.JpegQuality))
	return s
}

func (s *UdpSink) Kind() Kind      { return KindUDP }
func (s *UdpSink) Handle() *Handle { return s.handle }

func (s *UdpSink) Init() error {
	if err := s.conf.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	conn, err := socket.DialUDP(s.conf.FallbackHost, s.conf.FallbackPort)
	if err != nil {
		if socket.IsPortBusyError(err) {
			return fmt.Errorf("%w: %v", ErrPortInUse, err)
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.handle.setHealth(Active)
	s.log.Info().Msgf("UDP sink %v:%v is up (%vx%v @ %v fps)",
		s.conf.FallbackHost, s.conf.FallbackPort, s.conf.Width, s.conf.Height, s.conf.TargetFps)
	return nil
}

func (s *UdpSink) Send(f frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrDisconnected
	}

	data, err := encodeJPEG(f, s.conf.Width, s.conf.Height, int(s.quality.Load()))
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	grams := s.framer.Frame(uint32(s.conf.Width), uint32(s.conf.Height),
		uint64(time.Now().UnixMicro()), data)
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	for _, g := range grams {
		if _, err := s.conn.Write(g); err != nil {
			s.handle.setHealth(Degraded)
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
	}
	s.handle.setHealth(Active)
	s.handle.markSent()
	return nil
}

// SetQuality applies a live JPEG quality change from the config watcher.
func (s *UdpSink) SetQuality(q int) {
	if q >= 1 && q <= 100 {
		s.quality.Store(int32(q))
	}
}

// ConnectionCount reports 1 while the socket is open; UDP has no
// receiver tracking.
func (s *UdpSink) ConnectionCount() int {
	if s.handle.Health() == Active || s.handle.Health() == Degraded {
		return 1
	}
	return 0
}

func (s *UdpSink) Stop() {
	s.stopOnce.Do(func() {
		s.handle.setHealth(Stopped)
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		s.log.Info().Msg("UDP sink stopped")
	})
}
