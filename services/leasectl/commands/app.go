// Package commands implements the leasectl operator commands.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pavitra93/go-lease-management/shared/core"
	"github.com/pavitra93/go-lease-management/shared/events"
	"github.com/pavitra93/go-lease-management/shared/models"
)

// EventSource streams audit events
type EventSource interface {
	Consume(ctx context.Context, handle func(events.Event) error) error
	Close() error
}

// App holds what the commands need to reach the engine
type App struct {
	Open     func(ctx context.Context) (*core.Core, error)
	Consumer func() (EventSource, error)
	Log      *logrus.Entry
	Now      func() time.Time

	actor string
}

// Root builds the leasectl command tree
func Root(app *App) *cobra.Command {
	if app.Now == nil {
		app.Now = time.Now
	}

	root := &cobra.Command{
		Use:           "leasectl",
		Short:         "Operate the lease management engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&app.actor, "actor", "leasectl", "name recorded in the audit log")

	root.AddCommand(
		MigrateCmd(app),
		CreateAdminCmd(app),
		ExportCmd(app),
		RefreshStatusesCmd(app),
		ScheduleCmd(app),
		AuditCmd(app),
	)
	return root
}

// withCore opens the engine, runs fn and closes it again
func (a *App) withCore(ctx context.Context, fn func(c *core.Core) error) error {
	c, err := a.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open lease engine: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			a.Log.WithError(err).Warn("failed to close lease engine")
		}
	}()
	return fn(c)
}

func parseDay(value string) (time.Time, error) {
	t, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return t, nil
}
