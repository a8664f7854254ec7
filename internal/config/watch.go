package config

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher keeps the latest good configuration for a file and publishes
// every changed version to its subscribers.
type Watcher struct {
	path string
	log  zerolog.Logger

	mu       sync.RWMutex
	cfg      *Config
	lastHash uint64

	subsMu sync.Mutex
	subs   []chan *Config
}

// NewWatcher creates a Watcher seeded with cfg.
func NewWatcher(path string, cfg *Config, log zerolog.Logger) *Watcher {
	return &Watcher{path: path, cfg: cfg, lastHash: hashConfig(cfg), log: log}
}

// Get returns the latest committed configuration.
func (w *Watcher) Get() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// Subscribe returns a channel receiving each new configuration. Slow
// subscribers only ever see the newest value.
func (w *Watcher) Subscribe(buffer int) <-chan *Config {
	ch := make(chan *Config, max(1, buffer))
	w.subsMu.Lock()
	w.subs = append(w.subs, ch)
	w.subsMu.Unlock()
	return ch
}

func (w *Watcher) publish(cfg *Config) {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- cfg:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- cfg:
		default:
			w.log.Debug().Msg("config update dropped")
		}
	}
}

// Reload re-reads the file and publishes it when the content changed.
// Invalid files are logged and ignored; the last good config stays live.
func (w *Watcher) Reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
		return
	}

	h := hashConfig(cfg)
	w.mu.Lock()
	if h != 0 && h == w.lastHash {
		w.mu.Unlock()
		return
	}
	w.cfg = cfg
	w.lastHash = h
	w.mu.Unlock()

	w.publish(cfg)
	w.log.Info().Str("path", w.path).Str("hash", fmt.Sprintf("%x", h)).Msg("config reloaded")
}

// Watch follows the config file until ctx is done. The parent directory is
// watched so editors that replace the file are handled.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, w.Reload)
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Str("dir", dir).Msg("config watch error")
		}
	}
}

func hashConfig(cfg *Config) uint64 {
	if cfg == nil {
		return 0
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
