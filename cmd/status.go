package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	env := new(commonFlags)
	var asJSON bool

	var statusCommand = &cobra.Command{
		Use:   "status",
		Short: "Summarise the health of the link graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.newApp()
			if err != nil {
				return err
			}
			sum, err := a.StatusService.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), sum)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "edges %d, ok %d, broken %d\n", sum.Total, sum.OkCount, sum.BrokenCount)
			if sum.LastSyncTime != nil {
				fmt.Fprintf(out, "last sync %s (%dms)\n", sum.LastSyncTime.Local().Format(time.DateTime), sum.ScanDurationMs)
			} else {
				fmt.Fprintln(out, "never synced")
			}
			printCounts(cmd, "by status", sum.ByStatus)
			printCounts(cmd, "by type", sum.ByType)
			for _, e := range sum.SampleIssues {
				fmt.Fprintf(out, "  %s %s:%d -> %s\n", e.Status, e.NotePath, e.Line, e.TargetURI)
			}
			return nil
		},
	}

	rootCmd.AddCommand(statusCommand)
	env.bind(statusCommand)
	statusCommand.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(cmd.OutOrStdout(), "%s:", title)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), " %s=%d", k, counts[k])
	}
	fmt.Fprintln(cmd.OutOrStdout())
}
