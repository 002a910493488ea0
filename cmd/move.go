package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/haierkeys/vault-link-index/internal/service"

	"github.com/spf13/cobra"
)

func init() {
	env := new(commonFlags)
	var dryRun, asJSON bool

	var moveCommand = &cobra.Command{
		Use:   "move <old-path> <new-path>",
		Short: "Propagate an external file move to symlinks, notes and the link store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			newPath, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			a, err := env.newApp()
			if err != nil {
				return err
			}

			report := &service.MoveReport{}
			if dryRun {
				report.Vault, err = a.MoveService.UpdateVaultLinksOnMove(oldPath, newPath, true)
			} else {
				report, err = a.HandleFileMove(cmd.Context(), oldPath, newPath)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			if report.Skipped {
				fmt.Fprintf(out, "%s does not exist, nothing to do\n", newPath)
				return nil
			}
			if report.Vault != nil {
				for _, n := range report.Vault.Notes {
					fmt.Fprintf(out, "%s: %d reference(s)\n", n.NotePath, n.Replacements)
					if n.Patch != "" {
						fmt.Fprint(out, n.Patch)
					}
				}
				for _, e := range report.Vault.Errors {
					fmt.Fprintf(out, "  error: %s\n", e)
				}
			}
			if !dryRun {
				fmt.Fprintf(out, "edges updated %d\n", report.EdgesUpdated)
			}
			return nil
		},
	}

	rootCmd.AddCommand(moveCommand)
	env.bind(moveCommand)
	moveCommand.Flags().BoolVar(&dryRun, "dry-run", false, "show the note changes without writing anything")
	moveCommand.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
}
