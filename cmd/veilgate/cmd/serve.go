package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/veilgate-project/veilgate/internal/capture"
	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/events"
	"github.com/veilgate-project/veilgate/internal/gateway"
	"github.com/veilgate-project/veilgate/internal/inspect"
	"github.com/veilgate-project/veilgate/internal/scheduler"
	"github.com/veilgate-project/veilgate/internal/telemetry"
	"github.com/veilgate-project/veilgate/internal/util"
)

const banner = `
 __      __   _ _            _
 \ \    / /__(_) |__ _ __ _| |_ ___
  \ \/\/ / -_) | / _' / _' |  _/ -_)
   \_/\_/\___|_|_\__, \__,_|\__\___|
                 |___/  v%s
 Masked-record protocol gateway
`

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway, inspection API and background services",
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, _ := cmd.Flags().GetString("config-dir")
		return runServe(configDir)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(configDir string) error {
	fmt.Printf(banner, AppVersion)
	fmt.Println()

	// Defaults first; reconfigured once the config file is read.
	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info().
		Str("version", AppVersion).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Int("cpus", runtime.NumCPU()).
		Msg("starting Veilgate")

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging := cfg.GetApplication().Logging
	logCfg := util.LogConfig{
		Level:      logging.Level,
		Directory:  logging.Directory,
		MaxSizeMB:  logging.MaxSizeMB,
		MaxBackups: logging.MaxBackups,
		Console:    true,
	}
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		return fmt.Errorf("configuration validation failed")
	}

	sysInfo := util.GetSystemInfo()
	localIP, _ := util.GetLocalIP()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Str("cpu", sysInfo.CPUModel).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Str("local_ip", localIP).
		Msg("system information")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus()

	// Flight recorder. Failing to open it degrades to a recorder-less
	// gateway rather than refusing to serve.
	var store *capture.Store
	captureCfg := cfg.GetApplication().Capture
	if captureCfg.Enabled {
		store, err = capture.Open(captureCfg.Directory, captureCfg.MaxPayloadBytes)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open capture store, recording disabled")
			store = nil
		}
	}

	registry := gateway.NewRegistry()
	listener := gateway.NewListener(cfg, bus, registry, store)
	probe := gateway.NewProbeListener(cfg)

	stats := telemetry.NewStats()
	stats.Attach(bus)

	inspectServer := inspect.NewServer(cfg, bus, registry, store, stats)

	var mqttHandler *telemetry.MQTTHandler
	if cfg.GetApplication().MQTT.Enabled {
		mqttHandler, err = telemetry.NewMQTTHandler(cfg, bus)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		}
	}

	sched := scheduler.NewScheduler(cfg, bus, store, registry, stats)

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Int("port", cfg.GetGateway().Port).Msg("starting gateway listener")
		if err := startWithRetry(ctx, "gateway listener", listener.Start, 15); err != nil {
			log.Error().Err(err).Msg("gateway listener failed after retries")
			errCh <- fmt.Errorf("gateway listener: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting discovery probe listener")
		if err := startWithRetry(ctx, "discovery probe", probe.Start, 15); err != nil {
			log.Warn().Err(err).Msg("discovery probe failed after retries (non-fatal)")
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Int("port", cfg.GetGateway().APIPort).Msg("starting inspection server")
		if err := startWithRetry(ctx, "inspection server", inspectServer.Start, 15); err != nil {
			log.Warn().Err(err).Msg("inspection server failed after retries (non-fatal)")
		}
	}()

	if mqttHandler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Msg("starting MQTT telemetry")
			if err := mqttHandler.Start(ctx); err != nil {
				log.Warn().Err(err).Msg("MQTT telemetry failed")
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Msg("starting task scheduler")
		sched.Start(ctx)
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errCh:
		log.Error().Err(err).Msg("critical error, initiating shutdown")
	}

	log.Info().Msg("initiating graceful shutdown...")
	cancel()

	bus.Emit(context.Background(), events.Event{
		Type:   events.EventShutdown,
		Source: "main",
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("all tasks stopped gracefully")
	case <-time.After(30 * time.Second):
		log.Warn().Msg("shutdown timed out after 30 seconds, forcing exit")
	}

	registry.CloseAll()
	if store != nil {
		store.Close()
	}
	bus.Stop()

	log.Info().Msg("Veilgate stopped")
	return nil
}

// startWithRetry attempts to start a listener with a fixed 3-second pause
// between bind attempts. Ports linger in TIME_WAIT after an unclean stop.
func startWithRetry(ctx context.Context, name string, startFn func(context.Context) error, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = startFn(ctx)
		if lastErr == nil {
			return nil
		}
		if i < maxRetries {
			log.Warn().Err(lastErr).Str("component", name).Int("retry", i+1).Int("max", maxRetries).Msg("bind failed, retrying in 3s...")
			time.Sleep(3 * time.Second)
		}
	}
	return lastErr
}
