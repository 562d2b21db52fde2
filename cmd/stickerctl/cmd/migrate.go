package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrateCmd creates the documents table.  Opening the store already
// migrates, so the command only reports success.
func newMigrateCmd() *cobra.Command {
	return storeCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the document store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	})
}
