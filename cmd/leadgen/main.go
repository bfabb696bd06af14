package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/robby/leadgen/internal/api"
	"github.com/robby/leadgen/internal/auth"
	"github.com/robby/leadgen/internal/config"
	"github.com/robby/leadgen/internal/logging"
	"github.com/robby/leadgen/internal/store"
	"github.com/robby/leadgen/internal/tui"
)

var (
	// CLI flags
	configFlag      string
	baseURLFlag     string
	statusFlag      string
	pageSizeFlag    int
	logLevelFlag    string
	logFileFlag     string
	metricsAddrFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leadgen",
		Short: "Terminal dashboard for the lead generation backend",
		Long: `leadgen is a terminal dashboard for the lead generation backend.

Browse, search and sort the lead database, move leads through the sales
pipeline, record interactions and watch campaign analytics.

Authentication:
  1. api.token in the config file
  2. Environment variable: Set LEADGEN_TOKEN
  3. Token file: ~/.config/leadgen/token

The backend accepts unauthenticated requests when it runs without auth.`,
		SilenceUsage: true,
		RunE:         run,
	}

	// Define CLI flags
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.Flags().StringVar(&baseURLFlag, "base-url", "", "Backend API root, e.g. http://localhost:5000/api")
	rootCmd.Flags().StringVar(&statusFlag, "status", "", "Open the lead database filtered to this status")
	rootCmd.Flags().IntVar(&pageSizeFlag, "page-size", 0, "Leads fetched per page")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "Append logs to this file. Logs are discarded otherwise.")
	rootCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.UI.Status != "" {
		if err := store.ValidateStatus(cfg.UI.Status); err != nil {
			return fmt.Errorf("--status: %w", err)
		}
	}

	logFile, err := logging.OpenFile(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.Setup(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
		Output: logFile,
	})

	// Create API client (handles authentication)
	clientCfg := api.DefaultConfig()
	clientCfg.BaseURL = cfg.API.BaseURL
	clientCfg.Timeout = cfg.GetAPITimeout()
	clientCfg.Tokens = auth.Default(cfg.API.Token)
	client, err := api.New(clientCfg)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if metricsAddrFlag != "" {
		srv := serveMetrics(metricsAddrFlag)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().
		Str("base_url", client.BaseURL()).
		Int("page_size", cfg.UI.PageSize).
		Msg("starting leadgen")

	app, err := tui.NewAppModel(ctx, client, store.New(), tui.Options{
		PageSize:     cfg.UI.PageSize,
		PollInterval: cfg.GetPollInterval(),
		Status:       cfg.UI.Status,
	})
	if err != nil {
		return err
	}

	// Run Bubble Tea program
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}

// applyFlags lays the flags that were set over the loaded config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.API.BaseURL = baseURLFlag
	}
	if flags.Changed("status") {
		cfg.UI.Status = statusFlag
	}
	if flags.Changed("page-size") {
		cfg.UI.PageSize = pageSizeFlag
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevelFlag
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = logFileFlag
	}
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	logger := logging.NewLogger("metrics")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return srv
}
