package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/tonehaven/studiogen/internal/common"
	"github.com/tonehaven/studiogen/internal/processor"
	"github.com/tonehaven/studiogen/internal/services/gemini"
	"github.com/tonehaven/studiogen/internal/services/generation"
	"github.com/tonehaven/studiogen/internal/services/notebook"
	"github.com/tonehaven/studiogen/internal/services/selector"
	"github.com/tonehaven/studiogen/internal/storage/badger"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	watch       = flag.Bool("watch", false, "Keep running, draining the queue on an interval")
	showVersion = flag.Bool("version", false, "Print version information")
)

// The worker shares the queue store with the web process and drains it the
// same way: stuck recovery first, then pending batches. Single-run mode does
// one cycle and exits; watch mode repeats on the configured interval.
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Studiogen worker version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	config, err := common.LoadFromFile(*configFile)
	if err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)

	if config.Storage.Badger.Path == "" {
		logger.Error().Msg("Queue store path is not configured; set storage.badger.path or STUDIOGEN_BADGER_PATH")
		os.Exit(1)
	}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open queue store")
		os.Exit(1)
	}
	defer storageManager.Close()

	notebookService := notebook.NewService(&config.Notebook, logger)
	cloudService, err := gemini.NewService(&config.Gemini, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize cloud backend")
		os.Exit(1)
	}

	backendSelector := selector.NewService(config, notebookService, cloudService, storageManager.SettingsStorage(), logger)
	orchestrator := generation.NewOrchestrator(backendSelector, notebookService, cloudService, logger)
	proc := processor.NewProcessor(&config.Processor, storageManager.QueueStorage(), orchestrator, notebookService, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	if !*watch {
		if err := proc.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("Processing cycle failed")
			os.Exit(1)
		}
		logger.Info().Msg("Queue drained")
		return
	}

	interval := common.Duration(config.Processor.CycleInterval, 30*time.Second)

	logger.Info().Dur("interval", interval).Msg("Worker starting in watch mode")

	// Run one cycle immediately so a freshly started worker does not wait a
	// full interval before touching the queue
	if err := proc.RunOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("Processing cycle failed")
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := proc.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("Processing cycle failed")
		}
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to schedule processing cycle")
		os.Exit(1)
	}

	scheduler.Start()
	<-ctx.Done()

	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info().Msg("Worker stopped")
}
