package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List run metadata, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			csvOut, _ := cmd.Flags().GetBool("csv")
			rawFilters, _ := cmd.Flags().GetStringArray("filter")

			filters, err := parseFilters(rawFilters)
			if err != nil {
				return err
			}

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			if csvOut {
				return m.Metadata().WriteCSV(cmd.OutOrStdout(), filters)
			}

			rows, err := m.Metadata().Rows(filters)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(rows)
			}

			for _, row := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s eos=%s ecc=%s\n",
					row.DatabaseKey, row.RunKey, row.EOS, row.Eccentricity)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d run(s)\n", len(rows))
			return nil
		},
	}

	cmd.Flags().Bool("csv", false, "Output the full metadata table as CSV")
	cmd.Flags().StringArray("filter", nil, "Equality filter field=value (repeatable)")
	return cmd
}

func newEOSCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eos",
		Short: "List the distinct equation-of-state labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			m, _, err := openManager(cmd)
			if err != nil {
				return err
			}
			defer m.Close()

			eos := m.EOS()
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(eos)
			}
			for _, label := range eos {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}
