package sink

import "github.com/HsienYu/BreakingNewsEffects/pkg/frame"

// NullSink accepts every frame as a no-op so the render loop always has
// a sink to call, even when every real candidate failed to initialize.
type NullSink struct {
	handle *Handle
}

func NewNullSink() *NullSink {
	s := &NullSink{handle: newHandle(KindNull)}
	s.handle.setHealth(Active)
	return s
}

func (s *NullSink) Kind() Kind      { return KindNull }
func (s *NullSink) Handle() *Handle { return s.handle }
func (s *NullSink) Init() error     { return nil }

func (s *NullSink) Send(frame.Frame) error {
	s.handle.markSent()
	return nil
}

func (s *NullSink) ConnectionCount() int { return 0 }
func (s *NullSink) Stop()                { s.handle.setHealth(Stopped) }
