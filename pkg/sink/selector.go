package sink

import (
	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
)

// Select probes the host once and activates the first sink that
// initializes, in fixed priority order: shared-texture, shared-memory,
// then the configured network fallback. When everything fails the
// null sink is returned so the caller never blocks for lack of output.
//
// The returned sink is meant to be stored once and never swapped while
// the process runs.
func Select(conf caster.Sink, log *logger.Logger) Sink {
	caps := Probe()
	for _, s := range candidates(conf, caps, log) {
		if err := s.Init(); err != nil {
			log.Info().Err(err).Msgf("Sink %v is unavailable, trying next", s.Kind())
			continue
		}
		log.Info().Msgf("Active sink: %v (%v)", s.Kind(), s.Handle().ID)
		return s
	}
	log.Warn().Msg("No sink could be initialized, frames will be discarded")
	return NewNullSink()
}

func candidates(conf caster.Sink, caps Capabilities, log *logger.Logger) []Sink {
	var list []Sink
	for _, kind := range []Kind{KindSharedTexture, KindSharedMemory} {
		if !caps[kind] {
			log.Debug().Msgf("No %v capability on this host", kind)
			continue
		}
		list = append(list, NewLocalSink(kind, conf, log))
	}
	if conf.FallbackTransport == "udp" {
		list = append(list, NewUdpSink(conf, log))
	} else {
		list = append(list, NewHttpSink(conf, log))
	}
	return list
}
