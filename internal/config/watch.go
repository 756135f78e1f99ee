package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Watcher re-reads the config file whenever it changes on disk and hands the
// fresh Config to the callback. The callback also learns whether credentials
// changed, so the caller can force an immediate sync.
type Watcher struct {
	v   *viper.Viper
	log *zap.Logger

	mu      sync.Mutex
	current *Config
}

// Watch starts watching the file bound to v. The initial config must already
// be loaded; onChange runs on viper's watch goroutine.
func Watch(v *viper.Viper, initial *Config, log *zap.Logger, onChange func(cfg *Config, credentialsChanged bool)) *Watcher {
	w := &Watcher{v: v, log: log, current: initial}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := unmarshal(v)
		if err != nil {
			// Keep running with the previous config; a half-saved file
			// should not take the daemon down.
			log.Warn("config reload failed, keeping previous config",
				zap.String("event", e.Name), zap.Error(err))
			return
		}

		w.mu.Lock()
		changed := CredentialsChanged(w.current, cfg)
		w.current = cfg
		w.mu.Unlock()

		log.Info("configuration reloaded", zap.Bool("credentials_changed", changed))
		onChange(cfg, changed)
	})
	v.WatchConfig()

	return w
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}
