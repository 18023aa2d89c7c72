package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mllorens/corewa/internal/coredb"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List simulation keys, local by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			remote, _ := cmd.Flags().GetBool("remote")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := coredb.Open(cfg.Database.Path, cfg.Database.Server)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}

			var keys []string
			if remote {
				keys, err = db.RemoteKeys(cmd.Context(), coredb.SyncOptions{
					Protocol: cfg.Download.Protocol,
					LFS:      cfg.Download.LFS,
				})
				if err != nil {
					return err
				}
			} else {
				keys = db.Keys()
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(keys)
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}

	cmd.Flags().Bool("remote", false, "List keys available on the upstream server")
	return cmd
}
