package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
}

// WithDebounce sets the settle time before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// Watch reloads the configuration whenever the file at path is written or
// created, and passes each result to fn. It blocks until ctx is done. The
// directory is watched rather than the file so that editors which save by
// replacing the file are followed.
func Watch(ctx context.Context, path string, fn func(Config, error), opts ...WatchOption) error {
	wc := watchConfig{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&wc)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}

	var settle <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if wc.debounce == 0 {
				fn(Load(path))
				continue
			}
			if timer == nil {
				timer = time.NewTimer(wc.debounce)
			} else {
				timer.Reset(wc.debounce)
			}
			settle = timer.C

		case <-settle:
			settle = nil
			fn(Load(path))

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			fn(Config{}, fmt.Errorf("config watcher: %w", err))
		}
	}
}
