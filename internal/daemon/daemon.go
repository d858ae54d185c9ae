// Package daemon wires the engine together for the standalone voxmapd
// binary: logging, PID file, store, config hot-reload, tracing, the
// Coordinator, the optional debug HTTP surface, and graceful shutdown
// on SIGINT/SIGTERM.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/voxmap/voxmap/internal/config"
	"github.com/voxmap/voxmap/internal/coordinator"
	"github.com/voxmap/voxmap/internal/debugsrv"
	"github.com/voxmap/voxmap/internal/host"
	"github.com/voxmap/voxmap/internal/metrics"
	"github.com/voxmap/voxmap/internal/store"
	"github.com/voxmap/voxmap/internal/tracing"
	"github.com/voxmap/voxmap/internal/version"
)

// Options carries the platform adapters the embedding process supplies.
// A nil Host or SpeechEngine falls back to the inert null adapters, so
// the daemon can run standalone for inspection and debugging.
type Options struct {
	Host         host.Host
	SpeechEngine host.SpeechEngine
	Foreground   bool
}

// Run is the daemon orchestrator. It initialises all subsystems, starts
// the Coordinator, and blocks until a shutdown signal is received.
func Run(cfg *config.Config, opts Options) error {
	dataDir := cfg.DataDir
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	logPath := filepath.Join(dataDir, "voxmap.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	writers := []io.Writer{logFile}
	if opts.Foreground || cfg.LogToStdout {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Str("service", "voxmap").Logger()

	log.Info().
		Str("version", version.Version).
		Str("data_dir", dataDir).
		Bool("foreground", opts.Foreground).
		Msg("voxmap starting")

	if IsRunning(dataDir) {
		return fmt.Errorf("voxmap is already running (PID file exists at %s)", filepath.Join(dataDir, pidFilename))
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()
	log.Info().Str("db_path", cfg.StorePath).Msg("store opened")

	collector := metrics.NewCollector()

	if err := WritePID(dataDir); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() {
		if err := RemovePID(dataDir); err != nil {
			log.Error().Err(err).Msg("failed to remove PID file")
		}
	}()
	log.Info().Int("pid", os.Getpid()).Msg("PID file written")

	// Config hot-reload: log level applies immediately; structural
	// fields need a restart.
	configFile := config.ConfigFilePath()
	var watcher *config.Watcher
	if configFile != "" {
		if _, statErr := os.Stat(configFile); statErr == nil {
			w, watchErr := config.Watch(configFile)
			if watchErr != nil {
				log.Warn().Err(watchErr).Msg("failed to start config watcher; continuing without hot-reload")
			} else {
				watcher = w
				defer watcher.Close()
				watcher.OnChange(func(old, newCfg *config.Config) {
					log.Info().Msg("configuration reloaded")
					zerolog.SetGlobalLevel(parseLogLevel(newCfg.LogLevel))
				})
				log.Info().Str("file", configFile).Msg("config watcher started")
			}
		}
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	if cfg.Tracing.Enabled {
		shutdownTracing, traceErr := tracing.Init(rootCtx, cfg.Tracing.ServiceName, version.Version, cfg.Tracing.SampleRate)
		if traceErr != nil {
			log.Warn().Err(traceErr).Msg("tracing init failed; continuing without spans")
		} else {
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				if err := shutdownTracing(flushCtx); err != nil {
					log.Warn().Err(err).Msg("tracing shutdown error")
				}
			}()
		}
	}

	h := opts.Host
	if h == nil {
		h = host.NewNullHost()
		log.Warn().Msg("no accessibility host supplied; running with null host")
	}
	engine := opts.SpeechEngine
	if engine == nil {
		engine = host.NewNullSpeechEngine()
		log.Warn().Msg("no speech engine supplied; running with null engine")
	}

	coord, err := coordinator.New(cfg, h, engine, st, collector, log.Logger)
	if err != nil {
		return fmt.Errorf("building coordinator: %w", err)
	}

	errCh := make(chan error, 2)
	coordDone := make(chan struct{})
	go func() {
		defer close(coordDone)
		if runErr := coord.Run(rootCtx); runErr != nil {
			errCh <- fmt.Errorf("coordinator: %w", runErr)
		}
	}()

	var debugServer *debugsrv.Server
	if cfg.Debug.Enabled {
		debugServer = debugsrv.New(collector, st, coord.Grammar(), coord, cfg.Debug.Addr)
		go func() {
			if srvErr := debugServer.Start(); srvErr != nil {
				errCh <- srvErr
			}
		}()
	}

	prunerDone := make(chan struct{})
	go func() {
		defer close(prunerDone)
		runPruner(rootCtx, st, cfg.Retention.HistoryRetentionDays)
	}()

	log.Info().
		Bool("debug_surface", cfg.Debug.Enabled).
		Str("speed_class", string(cfg.Debounce.DeviceSpeedClass)).
		Msg("voxmap is ready")
	if opts.Foreground {
		fmt.Printf("\n  voxmap is running (data dir %s)\n\n", dataDir)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("fatal error")
		rootCancel()
		coord.Stop()
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	coord.Stop()
	if debugServer != nil {
		if err := debugServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("debug server shutdown error")
		}
	}

	rootCancel()
	<-prunerDone
	<-coordDone
	st.Close()
	if err := RemovePID(dataDir); err != nil {
		log.Error().Err(err).Msg("failed to remove PID file during shutdown")
	}

	log.Info().Msg("voxmap stopped")
	return nil
}

// Stop reads the PID file and sends SIGTERM to the running daemon.
func Stop() error {
	dataDir := config.Get().DataDir

	pid, err := ReadPID(dataDir)
	if err != nil {
		return fmt.Errorf("voxmap does not appear to be running: %w", err)
	}

	if !isProcessAlive(pid) {
		if rmErr := RemovePID(dataDir); rmErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove stale PID file: %v\n", rmErr)
		}
		return fmt.Errorf("voxmap is not running (stale PID file removed)")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("sending SIGTERM to process %d: %w", pid, err)
	}

	fmt.Printf("Sent SIGTERM to voxmap (PID %d)\n", pid)

	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if !isProcessAlive(pid) {
			return nil
		}
	}

	return nil
}

// Status checks if the daemon is running and prints a summary.
func Status() error {
	cfg := config.Get()
	dataDir := cfg.DataDir

	if !IsRunning(dataDir) {
		fmt.Println("voxmap is not running")
		return nil
	}

	pid, _ := ReadPID(dataDir)
	fmt.Printf("voxmap is running (PID %d)\n", pid)

	if !cfg.Debug.Enabled {
		return nil
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/debug/grammar", cfg.Debug.Addr))
	if err != nil {
		fmt.Println("  (debug surface unreachable)")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	var grammar struct {
		Active  []string `json:"active_phrases"`
		Dropped int64    `json:"speech_results_dropped"`
	}
	if err := json.Unmarshal(body, &grammar); err != nil {
		return nil
	}

	fmt.Printf("\n  Active phrases:         %d\n", len(grammar.Active))
	fmt.Printf("  Speech results dropped: %d\n", grammar.Dropped)

	return nil
}

// runPruner periodically prunes old state history and interaction rows.
func runPruner(ctx context.Context, st *store.Store, retentionDays int) {
	if retentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Error().Interface("panic", r).Msg("data pruner: recovered from panic")
					}
				}()
				n, err := st.Prune(retentionDays)
				if err != nil {
					log.Error().Err(err).Msg("data pruning failed")
				} else if n > 0 {
					log.Info().Int64("rows", n).Int("retention_days", retentionDays).Msg("pruned old data")
				}
			}()
		}
	}
}

// parseLogLevel converts a string log level to a zerolog.Level.
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
