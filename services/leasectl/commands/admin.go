package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavitra93/go-lease-management/shared/core"
	"github.com/pavitra93/go-lease-management/shared/export"
	"github.com/pavitra93/go-lease-management/shared/store"
)

func MigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withCore(cmd.Context(), func(c *core.Core) error {
				if err := c.Migrate(cmd.Context(), app.Log); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			})
		},
	}
}

func CreateAdminCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active admin account",
		Long:  `Creates an admin account. The password is read from --password or, when omitted, from LEASECTL_ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("LEASECTL_ADMIN_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("a password is required")
			}

			return app.withCore(cmd.Context(), func(c *core.Core) error {
				return c.Store.Do(cmd.Context(), app.actor, func(uow *store.UnitOfWork) error {
					u, err := c.Registry.Users.CreateAdmin(uow, username, password)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", u.Username, u.ID)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

func ExportCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:       "export <entity>",
		Short:     "Write an entity table as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: export.Entities(),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			return app.withCore(cmd.Context(), func(c *core.Core) error {
				return c.Store.Do(cmd.Context(), app.actor, func(uow *store.UnitOfWork) error {
					n, err := export.Write(uow, args[0], w)
					if err != nil {
						return err
					}
					app.Log.WithField("entity", args[0]).WithField("rows", n).Info("Export finished")
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func RefreshStatusesCmd(app *App) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "refresh-statuses",
		Short: "Recompute active/warning/expired for every contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := app.Now()
			if today != "" {
				var err error
				if day, err = parseDay(today); err != nil {
					return err
				}
			}

			return app.withCore(cmd.Context(), func(c *core.Core) error {
				return c.Store.Do(cmd.Context(), app.actor, func(uow *store.UnitOfWork) error {
					n, err := c.Contracts.RefreshStatuses(uow, day)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Updated %d contracts\n", n)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this date (YYYY-MM-DD)")
	return cmd
}
