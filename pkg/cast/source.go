package cast

import (
	"context"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/frame"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
)

// Source is a built-in test pattern generator used when no real
// producer feeds the bus: a bar sweeping over a dark background at the
// configured rate, enough to exercise every sink end to end.
type Source struct {
	bus  *Bus
	conf caster.Source
	log  *logger.Logger
	done chan struct{}
}

func NewSource(bus *Bus, conf caster.Source, log *logger.Logger) *Source {
	return &Source{bus: bus, conf: conf, log: log, done: make(chan struct{})}
}

func (s *Source) Run() { go s.run() }

func (s *Source) run() {
	w, h := s.conf.Width, s.conf.Height
	fps := s.conf.Fps
	if fps <= 0 {
		fps = 30
	}
	s.log.Info().Msgf("test pattern source %vx%v @ %v fps", w, h, fps)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	tick := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.bus.Publish(testPattern(w, h, tick))
			tick++
		}
	}
}

func (s *Source) Shutdown(context.Context) error {
	close(s.done)
	return nil
}

func (s *Source) String() string { return "test pattern source" }

// testPattern renders one RGBA frame: a white vertical bar moving one
// step per tick over a dim gray field.
func testPattern(w, h, tick int) frame.Frame {
	pix := make([]byte, w*h*4)
	bar := tick % w
	barW := w / 16
	if barW < 1 {
		barW = 1
	}
	for y := 0; y < h; y++ {
		row := y * w * 4
		for x := 0; x < w; x++ {
			i := row + x*4
			v := byte(32)
			if d := (x - bar + w) % w; d < barW {
				v = 255
			}
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
		}
	}
	return frame.NewRGBA(w, h, pix)
}
