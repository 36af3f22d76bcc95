package cast

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/frame"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/HsienYu/BreakingNewsEffects/pkg/sink"
	"github.com/prometheus/client_golang/prometheus"
)

// qualityTuner is implemented by sinks whose JPEG quality can change
// while running.
type qualityTuner interface {
	SetQuality(q int)
}

// Bus connects a frame producer to the selected sink. It owns the rate
// gate and drop/error accounting, the sink only sees frames that passed
// the gate.
type Bus struct {
	out     sink.Sink
	limiter *RateLimiter
	log     *logger.Logger
	m       *metrics

	senderName string
	address    string
	targetFps  atomic.Int64
	dropped    atomic.Uint64
	sendErrors atomic.Uint64
	running    atomic.Bool
	started    time.Time
}

// NewBus wires a sink behind the rate gate. The registerer receives the
// bus counters, pass prometheus.DefaultRegisterer in production.
func NewBus(out sink.Sink, conf caster.Sink, log *logger.Logger, reg prometheus.Registerer) *Bus {
	b := &Bus{
		out:        out,
		limiter:    NewRateLimiter(),
		log:        log,
		senderName: conf.SenderName,
		started:    time.Now(),
	}
	switch out.Kind() {
	case sink.KindUDP, sink.KindHTTP:
		b.address = fmt.Sprintf("%s:%d", conf.FallbackHost, conf.FallbackPort)
	}
	b.targetFps.Store(int64(conf.TargetFps))
	b.limiter.SetRate(out.Handle().ID, conf.TargetFps)
	b.m = newMetrics(reg, string(out.Kind()), func() float64 { return float64(out.ConnectionCount()) })
	b.running.Store(true)
	return b
}

// Publish offers one frame to the sink. Frames arriving faster than the
// target rate are dropped before any conversion or encoding work runs.
func (b *Bus) Publish(f frame.Frame) {
	if !b.running.Load() {
		return
	}
	if !b.limiter.Allow(b.out.Handle().ID, time.Now()) {
		b.dropped.Add(1)
		b.m.dropped.Inc()
		return
	}
	if err := b.out.Send(f); err != nil {
		b.sendErrors.Add(1)
		b.m.sendErrors.Inc()
		b.log.Debug().Err(err).Msgf("send to %v sink failed", b.out.Kind())
		return
	}
	b.m.sent.Inc()
}

func (b *Bus) IsRunning() bool { return b.running.Load() }

func (b *Bus) Sink() sink.Sink { return b.out }

// Tune applies live configuration changes without restarting the sink.
func (b *Bus) Tune(quality int, fps int) {
	if fps > 0 {
		b.targetFps.Store(int64(fps))
		b.limiter.SetRate(b.out.Handle().ID, fps)
	}
	if quality > 0 {
		if t, ok := b.out.(qualityTuner); ok {
			t.SetQuality(quality)
		}
	}
	b.log.Info().Msgf("tuned: quality=%v fps=%v", quality, fps)
}

// Stats snapshots the bus counters.
func (b *Bus) Stats() Stats {
	h := b.out.Handle()
	elapsed := time.Since(b.started).Seconds()
	sent := h.Sent()
	avg := 0.0
	if elapsed > 0 {
		avg = float64(sent) / elapsed
	}
	return Stats{
		SenderName:    b.senderName,
		Sink:          string(b.out.Kind()),
		Address:       b.address,
		Health:        h.Health().String(),
		FramesSent:    sent,
		FramesDropped: b.dropped.Load(),
		SendErrors:    b.sendErrors.Load(),
		Connections:   b.out.ConnectionCount(),
		ElapsedSec:    elapsed,
		AvgFps:        avg,
		TargetFps:     int(b.targetFps.Load()),
	}
}

// Close stops the bus and tears the sink down. Safe to call twice.
func (b *Bus) Close() {
	if !b.running.CompareAndSwap(true, false) {
		return
	}
	st := b.Stats()
	b.log.Info().Msgf("cast done: sent=%v dropped=%v errors=%v avg=%.1f fps",
		st.FramesSent, st.FramesDropped, st.SendErrors, st.AvgFps)
	b.out.Stop()
}
