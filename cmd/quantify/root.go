package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quantify/internal/config"
	"quantify/internal/discovery"
	"quantify/internal/engine"
	"quantify/internal/gitlog"
	"quantify/internal/logging"
	"quantify/internal/paths"
	"quantify/internal/projecttype"
	"quantify/internal/storage"
	"quantify/internal/version"
)

var (
	// noCacheFlag disables the daily-stats cache for this invocation
	noCacheFlag bool
	// quietFlag suppresses the progress bar
	quietFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "quantify",
	Short: "Personal git activity metrics",
	Long: `Quantify computes personal coding metrics across all your local git
repositories: lines added and removed, commit counts, project creation
dates, and per-repository rankings. Results for completed days are cached
so repeated queries stay fast.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("quantify version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVar(&noCacheFlag, "no-cache", false,
		"Bypass the daily-stats cache and query git directly")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false,
		"Suppress the progress bar")
}

// mustLoadConfig loads the configuration and exits on failure. Overridden
// exclusion categories get a warning so a shadowed default list is never
// silent.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if overridden := cfg.OverriddenCategories(); len(overridden) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: built-in defaults replaced for: %s\n",
			strings.Join(overridden, ", "))
	}
	return cfg
}

func newLoggerFromConfig(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

// buildEngine wires discovery, the extractor, and the cache into an engine.
// The returned cleanup closes the cache database and is safe to call when
// the cache is disabled.
func buildEngine(cfg *config.Config, logger *logging.Logger) (*engine.Engine, func()) {
	if cfg.Author == "" {
		fmt.Fprintln(os.Stderr, "Error: no author configured. Run 'quantify init' first.")
		os.Exit(1)
	}
	if len(cfg.RootPaths) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no root paths configured. Run 'quantify init' first.")
		os.Exit(1)
	}

	repos := discovery.NewScanner(cfg.RootPaths, logger).Find()
	extractor := gitlog.NewExtractor(cfg.Author,
		time.Duration(cfg.GitTimeoutSeconds)*time.Second, logger)

	var store *storage.DB
	cleanup := func() {}
	if !noCacheFlag {
		dbPath, err := paths.CacheDBPath()
		if err == nil {
			store, err = storage.Open(dbPath, logger)
		}
		if err != nil {
			logger.Warn("cache unavailable, querying git directly", map[string]interface{}{
				"error": err.Error(),
			})
			store = nil
		} else {
			cleanup = func() { store.Close() }
		}
	}

	ov := projecttype.Overrides{
		ExcludeDirs:       cfg.ExcludeDirs,
		ExcludeExtensions: cfg.ExcludeExtensions,
		ExcludeFilenames:  cfg.ExcludeFilenames,
		IncludePatterns:   cfg.IncludePatterns,
	}
	return engine.New(repos, extractor, store, ov, cfg.Workers, logger), cleanup
}

func newContext() context.Context {
	return context.Background()
}

// parseDate parses a YYYY-MM-DD flag value in local time.
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(gitlog.DateFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// resolveRange turns --start/--end flag values into engine bounds. An empty
// start means unbounded; an empty end means today.
func resolveRange(startStr, endStr string) (*time.Time, time.Time, error) {
	var start *time.Time
	if startStr != "" {
		t, err := parseDate(startStr)
		if err != nil {
			return nil, time.Time{}, err
		}
		start = &t
	}

	now := time.Now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if endStr != "" {
		t, err := parseDate(endStr)
		if err != nil {
			return nil, time.Time{}, err
		}
		end = t
	}
	if start != nil && end.Before(*start) {
		return nil, time.Time{}, fmt.Errorf("end date %s is before start date %s",
			end.Format(gitlog.DateFormat), start.Format(gitlog.DateFormat))
	}
	return start, end, nil
}

func rangeLabel(start *time.Time, end time.Time) string {
	if start == nil {
		return "through " + end.Format(gitlog.DateFormat)
	}
	return start.Format(gitlog.DateFormat) + " to " + end.Format(gitlog.DateFormat)
}
