// Package cmd implements the stickerctl operator commands.  They talk to
// the document store directly with service credentials, so they are meant
// for operators with database access, not for the storefront.
package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/stickerverse/internal/config"
	"github.com/iliyamo/stickerverse/internal/database"
	"github.com/iliyamo/stickerverse/internal/docstore"
)

// Version is set at build time.
var Version = "0.1.0"

// env carries what the subcommands share.  PersistentPreRunE fills it
// for commands that need the store.
type env struct {
	sqlitePath string
	db         *sql.DB
	store      *docstore.SQLStore
}

// open connects to the store named by --sqlite, or by the DB_* variables.
func (e *env) open(ctx context.Context) error {
	cfg := config.DBConfig{Driver: "sqlite", Path: e.sqlitePath}
	if e.sqlitePath == "" {
		cfg = config.LoadDB()
	}
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return err
	}
	e.db = db
	e.store = docstore.NewSQLStore(db)
	return nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
		e.db = nil
	}
}

// needsStore marks commands that get an open store.
const needsStore = "needs-store"

// NewRootCmd builds a fresh command tree.  Tests build their own so no
// state leaks between runs.
func NewRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:          "stickerctl",
		Short:        "StickerVerse operator CLI",
		Long:         "stickerctl prepares a StickerVerse store: migrations, catalog seeding,\nbootstrapping the first administrator and hashing the local admin password.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[needsStore] == "" {
				return nil
			}
			return e.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
	}
	root.PersistentFlags().StringVar(&e.sqlitePath, "sqlite", "", "use this SQLite file instead of the DB_* settings")

	root.AddCommand(
		newMigrateCmd(),
		newGrantRoleCmd(e),
		newSeedCmd(e),
		newHashPasswordCmd(),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func storeCommand(c *cobra.Command) *cobra.Command {
	if c.Annotations == nil {
		c.Annotations = map[string]string{}
	}
	c.Annotations[needsStore] = "true"
	return c
}
