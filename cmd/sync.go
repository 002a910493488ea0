package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	env := new(commonFlags)
	var asJSON bool

	var syncCommand = &cobra.Command{
		Use:   "sync",
		Short: "Scan the vault once and synchronise the link store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.newApp()
			if err != nil {
				return err
			}
			res, err := a.Sync(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s: %d notes, %d edges (%d new, %d updated, %d removed) in %dms\n",
				res.RunID, res.Stats.NotesScanned, res.Stats.EdgeTotal,
				res.UpsertCount, res.UpdatedCount, res.DeletedCount, res.SyncDurationMs)
			for _, e := range res.Stats.Errors {
				fmt.Fprintf(out, "  error: %s\n", e)
			}
			return nil
		},
	}

	rootCmd.AddCommand(syncCommand)
	env.bind(syncCommand)
	syncCommand.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
}
