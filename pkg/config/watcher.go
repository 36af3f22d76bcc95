package config

import (
	"path/filepath"

	"github.com/HsienYu/BreakingNewsEffects/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads a config file on filesystem changes so a running
// service can pick up tunables without a restart.
type Watcher struct {
	w    *fsnotify.Watcher
	file string
	log  *logger.Logger
}

// Watch starts watching the directory of the given file and calls
// onChange after each write to it.
func Watch(file string, log *logger.Logger, onChange func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watcher := &Watcher{w: w, file: filepath.Clean(file), log: log}
	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Write) && filepath.Clean(event.Name) == watcher.file {
					log.Debug().Str("file", event.Name).Msg("Config file changed")
					onChange()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("Config watch error")
			}
		}
	}()
	if err = w.Add(filepath.Dir(watcher.file)); err != nil {
		_ = w.Close()
		return nil, err
	}
	return watcher, nil
}

func (w *Watcher) Close() error { return w.w.Close() }
