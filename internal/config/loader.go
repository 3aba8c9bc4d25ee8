package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads a configuration file and optionally watches it for changes.
type Loader struct {
	path string

	mu       sync.Mutex
	config   *Config
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	done     chan struct{}
}

// NewLoader creates a loader for the given path. An empty path means
// built-in defaults with no file backing.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, decodes and validates the configuration. With no path, the
// defaults are returned as-is (environment overrides still apply).
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.path != "" {
		if err := decodeFile(l.path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", l.path, err)
	}

	l.mu.Lock()
	l.config = cfg
	l.mu.Unlock()
	return cfg, nil
}

// decodeFile decodes by extension: .toml (default), .yaml/.yml, .json.
// Decoding is applied on top of defaults, so partial files work.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json config: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse toml config: %w", err)
		}
	}
	return nil
}

// Watch begins watching the config file and calls onChange with each
// successfully reloaded configuration. Reloads that fail to parse or
// validate are dropped; the previous configuration stays in effect.
func (l *Loader) Watch(onChange func(*Config)) error {
	if l.path == "" {
		return fmt.Errorf("no config file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors replace files rather than write in place.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config directory: %w", err)
	}

	done := make(chan struct{})

	l.mu.Lock()
	l.watcher = watcher
	l.onChange = onChange
	l.done = done
	l.mu.Unlock()

	// The loop gets its own reference to done; Close mutates l.done under
	// the mutex, which the loop must never read.
	go l.watchLoop(watcher, done)
	return nil
}

func (l *Loader) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name != l.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := l.Load()
			if err != nil {
				continue
			}
			l.mu.Lock()
			cb := l.onChange
			l.mu.Unlock()
			if cb != nil {
				cb(cfg)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops watching.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		close(l.done)
		l.done = nil
	}
	if l.watcher != nil {
		err := l.watcher.Close()
		l.watcher = nil
		return err
	}
	return nil
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config
}
