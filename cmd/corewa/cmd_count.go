package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count runs in the database, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
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

			count, err := m.CountRuns(filters)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]int{"runs": count})
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}

	cmd.Flags().StringArray("filter", nil, "Equality filter field=value (repeatable)")
	return cmd
}
