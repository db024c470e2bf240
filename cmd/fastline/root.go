package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/config"
	"github.com/hyperengineering/fastline/internal/prefs"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var (
	configPath string
	prefsPath  string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "fastline",
	Short:         "fastline - offline-first fasting, water and weight tracker",
	Long:          "Track fasts, water and weight locally. Changes are queued and synced whenever the remote store is reachable.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (overrides FASTLINE_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", prefs.DefaultPath(),
		"Preferences file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")

	rootCmd.AddCommand(fastCmd)
	rootCmd.AddCommand(waterCmd)
	rootCmd.AddCommand(weightCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(daemonCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the default logger. Logs go to
// stderr so stdout stays parseable.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cmd.ErrOrStderr(), cfg.Log))
	return cfg, nil
}

// openApp loads configuration and opens the device. The fasting preset and
// the weight goal come from preferences unless opts sets them.
func openApp(cmd *cobra.Command, opts app.Options) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	p, _ := prefs.Load(prefsPath)
	if opts.PresetHours <= 0 {
		opts.PresetHours = p.PresetHours
	}
	if opts.TargetKG <= 0 {
		opts.TargetKG = p.Goal.TargetKG
	}
	if opts.HeightCM <= 0 {
		opts.HeightCM = p.Goal.HeightCM
	}
	if opts.OnComplete == nil {
		opts.OnComplete = app.NotifyComplete
	}
	return app.Open(cmd.Context(), cfg, opts)
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(lc.Level)}
	if lc.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown; each worker logs
// its own start and stop.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Debug("launching worker", "worker", name)
		fn(ctx)
	}()
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
