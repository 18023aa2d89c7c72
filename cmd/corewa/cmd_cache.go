package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mllorens/corewa/internal/strains"
)

func newCachedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cached",
		Short: "List simulations with a cached strain",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			cache, err := strains.Open(cfg.Database.Path)
			if err != nil {
				return err
			}

			if jsonOut {
				entries := make(map[string]strains.Entry, cache.Len())
				for _, key := range cache.Keys() {
					e, _ := cache.Get(key)
					entries[key] = e
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(entries)
			}

			for _, key := range cache.Keys() {
				e, _ := cache.Get(key)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s ecc=%g r=%g %s\n",
					key, e.RunKey, e.Eccentricity, e.RExtraction, e.File)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d cached\n", cache.Len())
			return nil
		},
	}
}

func newRescanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Rebuild the strain cache index from files on disk",
		Long: `Rescan walks the database directory for previously extracted strain
files and rebuilds the cache index from them, keeping per simulation the
strain with the highest extraction radius. Useful after a lost or stale
index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			cache, err := strains.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			if err := cache.Rescan(); err != nil {
				return err
			}
			if err := cache.Close(); err != nil {
				return err
			}

			for _, le := range cache.LoadErrors {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", le.Path, le.Error)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]int{
					"cached":  cache.Len(),
					"skipped": len(cache.LoadErrors),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d strain(s) indexed\n", cache.Len())
			return nil
		},
	}
}
