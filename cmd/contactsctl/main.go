package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-contacts-api/cmd/contactsctl/ui"
	"github.com/redmonkez12/go-contacts-api/internal/auth"
	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/database"
	"github.com/redmonkez12/go-contacts-api/internal/user"
)

var commandTimeout = 2 * time.Minute

func main() {
	if err := rootCmd().Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contactsctl",
		Short:         "Operate the contacts API database",
		Long:          "contactsctl applies schema migrations and manages admin accounts for the contacts API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd(), adminCmd())
	return root
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect schema migrations",
	}

	for _, direction := range []string{database.MigrateUp, database.MigrateDown, database.MigrateStatus} {
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: "Run goose " + direction,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDatabase(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sql.DB) error {
					if err := database.Migrate(ctx, db, direction); err != nil {
						return err
					}
					ui.PrintSuccess("migrate " + direction + " done")
					return nil
				})
			},
		})
	}

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var in ui.AdminInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a confirmed admin account",
		Long:  "Create a confirmed admin account. Missing fields are asked for interactively.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := in
			if input.Missing() {
				var err error
				if input, err = ui.RunAdminForm(input); err != nil {
					return err
				}
			}
			ui.PrintSummary(input)

			return withDatabase(cmd.Context(), func(ctx context.Context, cfg *config.Config, db *sql.DB) error {
				hasher := auth.NewArgon2idHasher(auth.Argon2Params{
					Time:    cfg.Auth.Argon2Time,
					Memory:  cfg.Auth.Argon2MemoryKiB,
					Threads: cfg.Auth.Argon2Threads,
				})
				repo := user.NewRepository(database.NewBunDB(db))

				created, err := createAdmin(ctx, repo, hasher, input)
				if err != nil {
					return err
				}
				ui.PrintSuccess(fmt.Sprintf("admin %s created", created.Username))
				ui.PrintHint("id: " + created.ID.String())
				return nil
			})
		},
	}
	create.Flags().StringVarP(&in.Username, "username", "u", "", "admin username")
	create.Flags().StringVarP(&in.Email, "email", "e", "", "admin email")
	create.Flags().StringVarP(&in.Password, "password", "p", "", "admin password")

	promote := &cobra.Command{
		Use:   "promote <username>",
		Short: "Grant the admin role to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sql.DB) error {
				if err := promoteAdmin(ctx, user.NewRepository(database.NewBunDB(db)), args[0]); err != nil {
					return err
				}
				ui.PrintSuccess(args[0] + " is now an admin")
				return nil
			})
		},
	}

	cmd.AddCommand(create, promote)
	return cmd
}

func withDatabase(parent context.Context, fn func(ctx context.Context, cfg *config.Config, db *sql.DB) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, commandTimeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(ctx, cfg, db)
}
