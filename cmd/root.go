package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/KaramelBytes/redactly-cli/internal/api"
	cfgpkg "github.com/KaramelBytes/redactly-cli/internal/config"
	"github.com/KaramelBytes/redactly-cli/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Server/HTTP flags (override config if set)
	flagBaseURL          string
	flagOutputDir        string
	flagLogFormat        string
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "redactly",
	Short: "Redactly CLI: upload, extract and redact documents on a Redactly server",
	Long: `Redactly is a CLI client for the Redactly document server. It uploads PDF/DOCX
documents, lists the document library, runs structured-data extraction and redaction
over selected documents, and saves the resulting artifacts locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printFailure(err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.redactly/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug output")
	f.StringVar(&flagBaseURL, "base-url", "", "document server URL (overrides config)")
	f.StringVar(&flagOutputDir, "output-dir", "", "directory for downloaded artifacts (overrides config)")
	f.StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	f.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	f.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max attempts for GET requests on 429/5xx (overrides config)")
	f.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	f.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{BaseURL: api.DefaultBaseURL, OutputDir: ".", LogLevel: "info"}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("base-url") && flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if f.Changed("output-dir") && flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	setupLogger()
}

func setupLogger() {
	lc := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = lvl
	} else {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	if debug {
		lc.Level = slog.LevelDebug
		lc.AddSource = true
	}
	if format, err := logging.ParseFormat(cfg.LogFormat); err == nil {
		lc.Format = format
	} else {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	logger = logging.New(lc)
	slog.SetDefault(logger)
}

// printFailure renders err as a notification on stderr.
func printFailure(err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "✗ Cancelled")
		return
	}
	n := api.Describe(err)
	fmt.Fprintf(os.Stderr, "✗ %s: %s\n", n.Title, n.Description)
	if debug {
		fmt.Fprintf(os.Stderr, "  (%s) %v\n", api.KindOf(err), err)
	}
}
