package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mllorens/corewa/internal/manager"
)

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <simulation-key>...",
		Short: "Download the optimum rh_22 strain for each simulation",
		Long: `Download synchronizes each simulation, selects the run with the lowest
eccentricity, extracts the rh_22 strain at the highest extraction radius to
a text file, and records it in the strain cache. Simulations already cached
are skipped unless --overwrite is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			keepH5, _ := cmd.Flags().GetBool("keep-h5")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			protocol, _ := cmd.Flags().GetString("protocol")
			lfs, _ := cmd.Flags().GetBool("lfs")
			quiet, _ := cmd.Flags().GetBool("quiet")

			m, cfg, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			if protocol == "" {
				protocol = cfg.Download.Protocol
			}
			if !cmd.Flags().Changed("lfs") {
				lfs = cfg.Download.LFS
			}
			if !cmd.Flags().Changed("keep-h5") {
				keepH5 = cfg.Download.KeepH5
			}

			results, err := m.DownloadStrains(cmd.Context(), args, manager.DownloadOptions{
				KeepH5:    keepH5,
				Overwrite: overwrite,
				Protocol:  protocol,
				LFS:       lfs,
				Verbose:   !quiet,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(downloadReport(results))
			}

			var downloaded, skipped, failed int
			for _, r := range results {
				switch r.Status {
				case manager.StatusDownloaded:
					downloaded++
				case manager.StatusSkipped:
					skipped++
				case manager.StatusFailed:
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d downloaded, %d skipped, %d failed\n",
				downloaded, skipped, failed)
			if failed > 0 {
				return fmt.Errorf("%d simulation(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().Bool("keep-h5", false, "Keep the raw HDF5 archives after extraction")
	cmd.Flags().Bool("overwrite", false, "Re-download simulations already cached")
	cmd.Flags().String("protocol", "", "Transfer protocol (https or http)")
	cmd.Flags().Bool("lfs", false, "Use the LFS-backed archive variant")
	cmd.Flags().Bool("quiet", false, "Suppress per-simulation progress lines")
	return cmd
}

type downloadResultJSON struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Run    string `json:"run,omitempty"`
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`
}

func downloadReport(results []manager.Result) []downloadResultJSON {
	report := make([]downloadResultJSON, 0, len(results))
	for _, r := range results {
		row := downloadResultJSON{Key: r.Key, Status: string(r.Status)}
		if r.Status == manager.StatusDownloaded {
			row.Run = r.Entry.RunKey
			row.File = r.Entry.File
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		report = append(report, row)
	}
	return report
}
