// Package config handles configuration loading, validation, and hot reload
// for convertd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"convertd/internal/logging"
	"convertd/internal/watch"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Acpi configures the hinge-toggle socket watcher.
	Acpi AcpiConfig `toml:"acpi" json:"acpi" yaml:"acpi"`

	// Stylus configures the proximity-stream watcher.
	Stylus StylusConfig `toml:"stylus" json:"stylus" yaml:"stylus"`

	// Devices configures handler device discovery and the keyboard.
	Devices DevicesConfig `toml:"devices" json:"devices" yaml:"devices"`

	// Journal configures the optional sqlite audit journal.
	Journal JournalConfig `toml:"journal" json:"journal" yaml:"journal"`

	// IPC configures the control socket.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`

	// Logging configures log output.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// AcpiConfig holds the acpid socket watcher configuration.
type AcpiConfig struct {
	// SocketPath is the acpid unix socket.
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`

	// ModePrefix is the record prefix marking a tablet-mode toggle.
	ModePrefix string `toml:"mode_prefix" json:"mode_prefix" yaml:"mode_prefix"`
}

// StylusConfig holds the proximity watcher configuration.
type StylusConfig struct {
	// NamePattern is the substring identifying the stylus input device.
	NamePattern string `toml:"name_pattern" json:"name_pattern" yaml:"name_pattern"`
}

// DevicesConfig holds handler device discovery configuration.
type DevicesConfig struct {
	StylusPattern      string `toml:"stylus_pattern" json:"stylus_pattern" yaml:"stylus_pattern"`
	FingerTouchPattern string `toml:"finger_touch_pattern" json:"finger_touch_pattern" yaml:"finger_touch_pattern"`
	TrackpointPattern  string `toml:"trackpoint_pattern" json:"trackpoint_pattern" yaml:"trackpoint_pattern"`
	TouchpadPattern    string `toml:"touchpad_pattern" json:"touchpad_pattern" yaml:"touchpad_pattern"`

	// KeyboardCommand launches the on-screen keyboard. Empty disables it.
	KeyboardCommand []string `toml:"keyboard_command" json:"keyboard_command" yaml:"keyboard_command"`
}

// JournalConfig holds the audit journal configuration.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `toml:"path" json:"path" yaml:"path"`
}

// IPCConfig holds the control socket configuration.
type IPCConfig struct {
	Enabled    bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	SocketPath string `toml:"socket_path" json:"socket_path" yaml:"socket_path"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is stdout, stderr or file.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is used when Output is file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: Version,
		Acpi: AcpiConfig{
			SocketPath: watch.DefaultAcpiSocket,
			ModePrefix: watch.DefaultTabletModePrefix,
		},
		Stylus: StylusConfig{
			NamePattern: "stylus",
		},
		Devices: DevicesConfig{
			StylusPattern:      "stylus",
			FingerTouchPattern: "Finger touch",
			TrackpointPattern:  "TrackPoint",
			TouchpadPattern:    "TouchPad",
			KeyboardCommand:    []string{"onboard"},
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    filepath.Join(stateHome(), "convertd", "journal.db"),
		},
		IPC: IPCConfig{
			Enabled:    true,
			SocketPath: DefaultSocketPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultSocketPath returns the control socket path, honoring
// XDG_RUNTIME_DIR.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "convertd.sock")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".convertd", "convertd.sock")
}

func stateHome() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state")
}

// ApplyEnvOverrides lets the environment override a few deployment-specific
// fields without editing the config file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CONVERTD_ACPI_SOCKET"); v != "" {
		c.Acpi.SocketPath = v
	}
	if v := os.Getenv("CONVERTD_IPC_SOCKET"); v != "" {
		c.IPC.SocketPath = v
	}
	if v := os.Getenv("CONVERTD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	var errs []error

	if c.Version != Version {
		errs = append(errs, fmt.Errorf("unsupported config version %d (want %d)", c.Version, Version))
	}
	if c.Acpi.SocketPath == "" {
		errs = append(errs, errors.New("acpi.socket_path must not be empty"))
	}
	if c.Acpi.ModePrefix == "" {
		errs = append(errs, errors.New("acpi.mode_prefix must not be empty"))
	}
	if c.Stylus.NamePattern == "" {
		errs = append(errs, errors.New("stylus.name_pattern must not be empty"))
	}
	for name, pattern := range map[string]string{
		"devices.stylus_pattern":       c.Devices.StylusPattern,
		"devices.finger_touch_pattern": c.Devices.FingerTouchPattern,
		"devices.trackpoint_pattern":   c.Devices.TrackpointPattern,
		"devices.touchpad_pattern":     c.Devices.TouchpadPattern,
	} {
		if pattern == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, errors.New("journal.path required when journal is enabled"))
	}
	if c.IPC.Enabled && c.IPC.SocketPath == "" {
		errs = append(errs, errors.New("ipc.socket_path required when ipc is enabled"))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		errs = append(errs, fmt.Errorf("logging.format: %w", err))
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		errs = append(errs, errors.New("logging.file_path required for file output"))
	}

	return errors.Join(errs...)
}

// BuildLogging builds the logging package configuration. Validation must
// have passed already.
func (c *Config) BuildLogging(component string) *logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	format, _ := logging.ParseFormat(c.Logging.Format)
	return &logging.Config{
		Level:     level,
		Format:    format,
		Output:    c.Logging.Output,
		FilePath:  c.Logging.FilePath,
		Component: component,
	}
}
