package main

import (
	"context"
	"fmt"
	gos "os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HsienYu/BreakingNewsEffects/pkg/cast"
	"github.com/HsienYu/BreakingNewsEffects/pkg/cast/status"
	"github.com/HsienYu/BreakingNewsEffects/pkg/config"
	"github.com/HsienYu/BreakingNewsEffects/pkg/config/caster"
	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/HsienYu/BreakingNewsEffects/pkg/monitoring"
	"github.com/HsienYu/BreakingNewsEffects/pkg/os"
	"github.com/HsienYu/BreakingNewsEffects/pkg/service"
	"github.com/HsienYu/BreakingNewsEffects/pkg/sink"
	"github.com/HsienYu/BreakingNewsEffects/pkg/thread"
	"github.com/prometheus/client_golang/prometheus"
)

var Version = "?"

const shutdownTimeout = 5 * time.Second

func run() {
	conf := caster.NewConfig()
	conf.ParseFlags()

	log := logger.NewConsole(conf.Caster.Debug, "caster")
	log.Info().Msgf("version %v", Version)

	lock, err := os.NewFileLock(lockPath(conf.Caster.Sink.SenderName))
	if err != nil {
		log.Fatal().Err(err).Msg("couldn't make the instance lock")
	}
	held, err := lock.TryLock()
	if err != nil {
		log.Fatal().Err(err).Msg("instance lock fail")
	}
	if !held {
		log.Fatal().Msgf("another caster already publishes as %q", conf.Caster.Sink.SenderName)
	}
	defer func() { _ = lock.Unlock() }()

	if err := conf.Caster.Sink.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad sink configuration")
	}

	out := sink.Select(conf.Caster.Sink, log)
	bus := cast.NewBus(out, conf.Caster.Sink, log, prometheus.DefaultRegisterer)
	defer bus.Close()

	var services service.Group
	if conf.Caster.Source.Enabled {
		services.Add(cast.NewSource(bus, conf.Caster.Source, log))
	}
	if conf.Caster.Status.Enabled {
		feed, err := status.NewServer(conf.Caster.Status, bus.Stats, log)
		if err != nil {
			log.Error().Err(err).Msg("status feed is disabled")
		} else {
			services.Add(feed)
		}
	}
	if conf.Caster.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Caster.Monitoring, log)
		if err != nil {
			log.Error().Err(err).Msg("monitoring is disabled")
		} else {
			services.Add(mon)
		}
	}
	services.Start()

	if path := caster.ConfigPath(); path != "" {
		watcher, err := config.Watch(filepath.Join(path, "config.yaml"), log, func() {
			next := caster.NewConfig()
			if err := next.Caster.Sink.Validate(); err != nil {
				log.Warn().Err(err).Msg("ignoring bad config change")
				return
			}
			bus.Tune(next.Caster.Sink.JpegQuality, next.Caster.Sink.TargetFps)
		})
		if err != nil {
			log.Warn().Err(err).Msg("config watch is disabled")
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	<-os.ExpectTermination()
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := services.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown fail")
	}
}

func lockPath(name string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	return filepath.Join(gos.TempDir(), fmt.Sprintf("caster-%s.lock", slug))
}

func main() {
	thread.MainWrapMaybe(run)
}
