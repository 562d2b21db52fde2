package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/stickerverse/internal/model"
	"github.com/iliyamo/stickerverse/internal/repository"
)

func newGrantRoleCmd(e *env) *cobra.Command {
	return storeCommand(&cobra.Command{
		Use:   "grant-role <email> <user|admin>",
		Short: "Set a principal's role directly in the store",
		Long: `grant-role writes the role field of an existing principal with service
credentials.  It is how the first administrator is created; after that,
use PUT /v1/admin/users/:id/role.  The principal must have signed up.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := model.ParseRole(args[1])
			if err != nil {
				return err
			}
			users := repository.NewUserRepo(e.store)
			p, err := users.GetByEmail(cmd.Context(), args[0])
			if repository.IsNotFound(err) {
				return fmt.Errorf("no principal with email %s; sign up first", args[0])
			}
			if err != nil {
				return err
			}
			if err := users.SetRole(cmd.Context(), p.ID, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", p.Email, p.ID, role)
			return nil
		},
	})
}
