package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/stickerverse/internal/repository"
	"github.com/iliyamo/stickerverse/internal/seed"
)

func newSeedCmd(e *env) *cobra.Command {
	return storeCommand(&cobra.Command{
		Use:   "seed <catalog.yaml>",
		Short: "Load catalog items from a YAML file",
		Long:  "seed creates every product in the file whose name is not in the catalog yet.\nRe-running it with the same file creates nothing.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			n, err := seed.Apply(cmd.Context(), repository.NewProductRepo(e.store), cf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d products\n", n, len(cf.Products))
			return nil
		},
	})
}
