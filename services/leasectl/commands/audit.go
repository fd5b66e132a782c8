package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/core"
	"github.com/pavitra93/go-lease-management/shared/events"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
)

func AuditCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit log",
	}
	cmd.AddCommand(auditListCmd(app), auditTailCmd(app))
	return cmd
}

func auditListCmd(app *App) *cobra.Command {
	var (
		table, actor, action string
		page, perPage        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f audit.Filters
			if table != "" {
				f.Table = &table
			}
			if actor != "" {
				f.Actor = &actor
			}
			if action != "" {
				a := models.AuditAction(action)
				f.Action = &a
			}

			return app.withCore(cmd.Context(), func(c *core.Core) error {
				return c.Store.Do(cmd.Context(), app.actor, func(uow *store.UnitOfWork) error {
					entries, err := c.Trail.ListEntries(uow, store.ListQuery{Page: page, PerPage: perPage}, f)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tTIME\tUSER\tACTION\tTABLE\tROW")
					for _, e := range entries.Data {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
							e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.Actor, e.Action, e.Table, e.RowID)
					}
					fmt.Fprintf(w, "page %d, %d of %d entries\n", entries.Page, len(entries.Data), entries.Total)
					return w.Flush()
				})
			})
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "only entries for this table")
	cmd.Flags().StringVar(&actor, "user", "", "only entries by this user")
	cmd.Flags().StringVar(&action, "action", "", "add, update or delete")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", store.DefaultPerPage, "entries per page")
	return cmd
}

// auditTailCmd follows the audit stream and prints one JSON event per line
func auditTailCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Follow audit events from Kafka",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := app.Consumer()
			if err != nil {
				return err
			}
			defer func() {
				if err := source.Close(); err != nil {
					app.Log.WithError(err).Warn("failed to close audit stream")
				}
			}()

			enc := json.NewEncoder(cmd.OutOrStdout())
			return source.Consume(cmd.Context(), func(e events.Event) error {
				return enc.Encode(e)
			})
		},
	}
}
