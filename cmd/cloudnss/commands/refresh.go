package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/marmos91/cloudnss/internal/logger"
	"github.com/marmos91/cloudnss/pkg/cachefile"
	"github.com/marmos91/cloudnss/pkg/config"
	"github.com/marmos91/cloudnss/pkg/directory"
	"github.com/marmos91/cloudnss/pkg/metrics"
	"github.com/spf13/cobra"
)

var refreshDaemon bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the local cache file from the directory",
	Long: `Fetch the full account listing from the cloud directory and rewrite the
local cache file, sorted by uid. The new file replaces the old one
atomically, so concurrent lookups always see a complete file.

With --daemon the refresh repeats on the configured interval until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if !refreshDaemon {
			n, err := refreshOnce(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "wrote %d accounts to %s\n", n, cfg.Cache.Path)
			return nil
		}
		return runDaemon(cfg)
	},
}

// refreshOnce fetches all accounts and rewrites the cache file.
func refreshOnce(cfg *config.Config) (int, error) {
	client := directory.New(cfg.Directory.BaseURL, cfg.Directory.Timeout)
	accounts, err := client.ListAccounts()
	if err != nil {
		metrics.RecordRefresh(metrics.OutcomeError, 0)
		return 0, fmt.Errorf("listing accounts: %w", err)
	}
	n, err := cachefile.Write(cfg.Cache.Path, accounts)
	if err != nil {
		metrics.RecordRefresh(metrics.OutcomeError, 0)
		return 0, fmt.Errorf("writing cache file: %w", err)
	}
	metrics.RecordRefresh(metrics.OutcomeOK, n)
	return n, nil
}

// runDaemon refreshes on the configured interval until SIGINT or SIGTERM.
func runDaemon(cfg *config.Config) error {
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go serveMetrics(cfg.Metrics.Listen)
	}

	logger.Info("cache refresh daemon starting",
		"interval", cfg.Cache.RefreshInterval,
		"path", cfg.Cache.Path)

	if n, err := refreshOnce(cfg); err != nil {
		logger.Error("initial refresh failed", "error", err)
	} else {
		logger.Info("cache refreshed", "accounts", n)
	}

	ticker := time.NewTicker(cfg.Cache.RefreshInterval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if n, err := refreshOnce(cfg); err != nil {
				logger.Error("refresh failed", "error", err)
			} else {
				logger.Info("cache refreshed", "accounts", n)
			}
		case sig := <-stop:
			logger.Info("shutting down", "signal", sig.String())
			return nil
		}
	}
}

// serveMetrics exposes /metrics and /healthz for the daemon.
func serveMetrics(listen string) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Info("metrics listener starting", "addr", listen)
	if err := http.ListenAndServe(listen, r); err != nil {
		logger.Error("metrics listener failed", "error", err)
	}
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshDaemon, "daemon", false, "Refresh periodically on the configured interval")
}
