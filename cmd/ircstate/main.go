package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/ircstate/ircstate/internal/config"
	"github.com/ircstate/ircstate/internal/irc"
	"github.com/ircstate/ircstate/internal/storage"
	"github.com/ircstate/ircstate/internal/track"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.String("c", "./config.yaml", "Path to configuration file")
	debug := flag.Bool("d", false, "Enable debug logging")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("ircstate version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	// Set version info in irc package
	irc.Version = version
	irc.BuildDate = buildDate
	irc.GitCommit = gitCommit

	run(*configPath, *debug)
}

func run(configPath string, debug bool) {
	// Make config path absolute
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(debug || cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}

	client := irc.NewClient(cfg, logger.Named("irc"))

	// State tracking must be wired before Connect so no events are
	// missed.
	tracker := track.New(logger.Named("track"))
	meta, err := storage.LoadMetadata(cfg.DataDir)
	if err != nil {
		logger.Warn("could not load metadata", zap.Error(err))
	} else {
		tracker.SeedMetadata(meta)
	}
	// Persist metadata whenever the connection drops. Registered
	// before Install so the snapshot is taken before the tracker
	// resets itself.
	client.OnDisconnect(func() {
		if err := storage.SaveMetadata(cfg.DataDir, tracker.MetadataSnapshot()); err != nil {
			logger.Error("could not save metadata", zap.Error(err))
		}
	})

	if err := tracker.Install(client); err != nil {
		logger.Fatal("failed to install tracking", zap.Error(err))
	}
	if err := client.Features().Register(track.FeatureName, tracker); err != nil {
		logger.Fatal("failed to register tracker feature", zap.Error(err))
	}

	// Join configured channels once registration completes.
	client.Subscribe("001", func(e track.Event) {
		for _, channel := range cfg.Channels {
			if err := client.Join(channel); err != nil {
				logger.Warn("join failed", zap.String("channel", channel), zap.Error(err))
			}
		}
	})

	// Signal handling: quit cleanly, the disconnect hook persists.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutting down", zap.String("signal", sig.String()))
		client.Quit()
	}()

	logger.Info("connecting", zap.String("server", cfg.Server), zap.Int("port", cfg.Port))
	if err := client.Connect(); err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}
	client.Loop()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
