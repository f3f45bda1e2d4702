package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"serial-controller/internal/config"
	"serial-controller/internal/core"
	"serial-controller/internal/hardware"
	"serial-controller/internal/input"
	"serial-controller/internal/logger"
	"serial-controller/internal/messaging"
	"serial-controller/internal/session"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration file (default: search for "+config.DefaultFileName+" upwards from the working directory)")
	logLevel := flag.String("log", "", "Log level override (none, error, warn, info, debug or 0-4)")
	listPorts := flag.Bool("list-ports", false, "List the serial ports present on this machine and exit")
	flag.Parse()

	if *listPorts {
		ports, err := session.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list ports: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// systemd adds its own timestamps
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}
	l := logger.NewLogger(stdLogger, logger.LogLevelInfo)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		l.Fatalf("%v", err)
	}
	level := cfg.Level()
	if *logLevel != "" {
		if level, err = logger.ParseLevel(*logLevel); err != nil {
			l.Fatalf("Invalid -log: %v", err)
		}
	}
	l = logger.NewLogger(stdLogger, level)

	l.Infof("Starting serial controller on %d ports...", len(cfg.Ports))

	injector, err := newInjector(cfg, l.WithTag("input"))
	if err != nil {
		l.Fatalf("Failed to create %s injector: %v", cfg.Injector, err)
	}

	opts := core.Options{
		Config:   cfg,
		Injector: input.NewLocked(injector),
		Opener:   session.SerialOpener{BaudRate: cfg.BaudRate},
	}
	if cfg.Redis.Enabled {
		opts.Messaging = messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Prefix, l.WithTag("redis"), messaging.Callbacks{})
	}
	if cfg.StatusLED.Enabled {
		led := cfg.StatusLED
		output, err := hardware.OpenLineOutput(led.Chip, led.Line, led.ActiveLow, l.WithTag("gpio"))
		if err != nil {
			l.Warnf("Status LED unavailable: %v", err)
		} else {
			defer output.Close()
			opts.Status = hardware.NewStatusLED(output, led.Frequency, l.WithTag("led"))
		}
	}

	system, err := core.NewSystem(opts, l.WithTag("core"))
	if err != nil {
		l.Fatalf("Failed to create system: %v", err)
	}
	if err := system.Start(); err != nil {
		l.Fatalf("Failed to start system: %v", err)
	}

	l.Infof("System started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	l.Infof("Received signal %v, shutting down...", sig)
	system.Shutdown()
	l.Infof("Shutdown complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		if path, err = config.Find(config.DefaultFileName, cwd); err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

func newInjector(cfg *config.Config, l *logger.Logger) (input.Injector, error) {
	switch cfg.Injector {
	case config.InjectorUinput:
		if err := hardware.CheckWritable(cfg.UinputPath); err != nil {
			return nil, err
		}
		return input.NewUinput(cfg.UinputPath)
	case config.InjectorKeybd:
		return input.NewKeybd()
	default:
		l.Infof("Input injection disabled, logging at debug level only")
		return input.NewNop(l), nil
	}
}
