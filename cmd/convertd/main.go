// convertd - Input management daemon for convertible laptops.
//
// convertd watches three hardware event sources (the acpid socket for
// tablet-mode toggles, the iio-sensor-proxy D-Bus service for screen
// orientation, and the stylus proximity stream) and reconfigures the X11
// input and display stack accordingly: rotating the screen and digitizer,
// enabling and disabling pointing devices, and raising an on-screen
// keyboard in tablet mode.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"convertd/internal/config"
	"convertd/internal/dispatch"
	"convertd/internal/handler"
	"convertd/internal/ipc"
	"convertd/internal/journal"
	"convertd/internal/logging"
	"convertd/internal/queue"
	"convertd/internal/supervisor"
	"convertd/internal/watch"
	"convertd/internal/x11"
)

const version = "1.0.0"

func main() {
	var (
		configPath = flag.String("config", "", "configuration file (toml, yaml or json)")
		logLevel   = flag.String("log-level", "", "override log level (debug, info, warn, error)")
		logFormat  = flag.String("log-format", "", "override log format (text, json)")
		showVer    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println("convertd", version)
		return
	}

	if err := run(*configPath, *logLevel, *logFormat); err != nil {
		fmt.Fprintf(os.Stderr, "convertd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel, logFormat string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logCfg := cfg.BuildLogging("main")
	if logLevel != "" {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logCfg.Level = level
	}
	if logFormat != "" {
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		logCfg.Format = format
	}

	log, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("starting convertd", "version", version, "pid", os.Getpid())

	surface := x11.NewSurface(x11.NewRunner(), log)

	h, err := handler.NewDeviceHandler(log, surface, handler.Options{
		StylusPattern:      cfg.Devices.StylusPattern,
		FingerTouchPattern: cfg.Devices.FingerTouchPattern,
		TrackpointPattern:  cfg.Devices.TrackpointPattern,
		TouchpadPattern:    cfg.Devices.TouchpadPattern,
		KeyboardCommand:    cfg.Devices.KeyboardCommand,
	})
	if err != nil {
		return fmt.Errorf("device discovery: %w", err)
	}

	q := queue.New()

	dispatcher := dispatch.New(q, h, log)
	dispatcher.Status = dispatch.NewStatus(string(h.Mode()))

	if cfg.Journal.Enabled {
		jnl, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jnl.Close()
		dispatcher.Journal = jnl
		log.Info("event journal enabled", "path", cfg.Journal.Path)
	}

	if cfg.IPC.Enabled {
		server := ipc.NewServer(cfg.IPC.SocketPath, func() ipc.Status {
			snap := dispatcher.Status.Snapshot()
			return ipc.Status{
				PID:       os.Getpid(),
				StartedAt: snap.StartedAt,
				Mode:      snap.Mode,
				Counts:    snap.Counts,
				Exits:     snap.Exits,
			}
		}, log)
		if err := server.Start(); err != nil {
			return fmt.Errorf("start control socket: %w", err)
		}
		defer server.Stop()
	}

	// Config file changes only retune the log level at runtime. Everything
	// else (device patterns, socket paths) is fixed at startup because the
	// watchers and handler bind to it once.
	if configPath != "" {
		err := loader.Watch(func(next *config.Config) {
			level, err := logging.ParseLevel(next.Logging.Level)
			if err != nil {
				log.Warn("reload: bad log level", "level", next.Logging.Level)
				return
			}
			log.SetLevel(level)
			log.Info("reload: log level applied", "level", next.Logging.Level)
		})
		if err != nil {
			log.Warn("config watch unavailable", "error", err)
		} else {
			defer loader.Close()
		}
	}

	sup := supervisor.New(q, log)
	sup.Spawn("acpi", watch.NewAcpiWatcher(q, log, cfg.Acpi.SocketPath, cfg.Acpi.ModePrefix).Run)
	sup.Spawn("sensor", watch.NewSensorWatcher(q, log).Run)
	sup.Spawn("stylus", watch.NewStylusWatcher(q, log, surface, cfg.Stylus.NamePattern).Run)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("shutting down", "signal", sig.String())
		q.Close()
	}()

	// The dispatcher owns the main goroutine. It returns once the queue is
	// closed and the remaining events have been handled.
	dispatcher.Run()
	log.Info("convertd stopped")
	return nil
}
