package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mllorens/corewa/internal/config"
	"github.com/mllorens/corewa/internal/logging"
	"github.com/mllorens/corewa/internal/manager"
	"github.com/mllorens/corewa/internal/metadata"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "corewa",
		Short: "CoRe database made easy - strain download and cache manager",
		Long: `corewa automates the usual chores of working with the CoRe gravitational
wave database: it aggregates run metadata, picks per simulation the run with
the lowest eccentricity, downloads only the rh_22 strain at the highest
extraction radius, and keeps the extracted strains cached as text files.`,
	}

	// Global flags
	rootCmd.PersistentFlags().String("db", "", "Database directory (overrides config)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for script consumption)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newDownloadCmd(),
		newCountCmd(),
		newListCmd(),
		newEOSCmd(),
		newKeysCmd(),
		newCachedCmd(),
		newRescanCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "corewa version %s\n", version)
			}
		},
	}
}

// loadConfig loads the effective configuration, applying the --db flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Database.Path = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openManager builds a manager from the effective configuration.
func openManager(cmd *cobra.Command) (*manager.Manager, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	trace := logging.NewSyncLogger(filepath.Join(cfg.Database.Path, ".corewa"), cfg.Logging.Level)

	m, err := manager.Open(cfg.Database.Path, cfg.Database.Server, logger, trace)
	if err != nil {
		trace.Close()
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return m, cfg, nil
}

// parseFilters turns repeated "field=value" flags into metadata filters.
func parseFilters(raw []string) ([]metadata.Filter, error) {
	filters := make([]metadata.Filter, 0, len(raw))
	for _, r := range raw {
		field, value, found := strings.Cut(r, "=")
		if !found || field == "" {
			return nil, fmt.Errorf("invalid filter %q, expected field=value", r)
		}
		filters = append(filters, metadata.Filter{Field: field, Value: value})
	}
	return filters, nil
}
