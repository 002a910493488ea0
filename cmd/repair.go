package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	env := new(commonFlags)
	var fromNotes, asJSON bool

	var repairCommand = &cobra.Command{
		Use:   "repair",
		Short: "Rebuild this machine's _links namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.newApp()
			if err != nil {
				return err
			}
			res, err := a.Repair(cmd.Context(), fromNotes)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "links found %d, created %d, skipped %d, failed %d\n",
				res.LinksFound, res.Created, res.Skipped, len(res.Failed))
			for _, f := range res.Failed {
				fmt.Fprintf(out, "  %s: %s\n", f.ID, f.Reason)
			}
			if res.Aborted {
				return fmt.Errorf("repair aborted")
			}
			return nil
		},
	}

	rootCmd.AddCommand(repairCommand)
	env.bind(repairCommand)
	repairCommand.Flags().BoolVar(&fromNotes, "from-notes", false, "infer missing symlinks from note references instead of the store")
	repairCommand.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
}
