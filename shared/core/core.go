// Package core wires the lease engine's services onto one store and audit trail.
package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/billing"
	"github.com/pavitra93/go-lease-management/shared/config"
	"github.com/pavitra93/go-lease-management/shared/events"
	"github.com/pavitra93/go-lease-management/shared/lease"
	"github.com/pavitra93/go-lease-management/shared/lock"
	"github.com/pavitra93/go-lease-management/shared/registry"
	"github.com/pavitra93/go-lease-management/shared/store"
)

// Options tunes New. Zero values pick the defaults.
type Options struct {
	Publisher   events.Publisher
	Locker      lease.Locker
	WarningDays int
	MaxRetries  int
}

// Core exposes every service of the engine
type Core struct {
	Store     *store.Store
	Trail     *audit.Trail
	Registry  *registry.Registry
	Contracts *lease.Service
	Invoices  *billing.InvoiceService
	Payments  *billing.Reconciler
	Scheduler *billing.Scheduler

	closers []func() error
}

// New builds the services on db
func New(db *gorm.DB, log *logrus.Entry, opts Options) *Core {
	storeOpts := []store.Option{store.WithLogger(log)}
	if opts.MaxRetries > 0 {
		storeOpts = append(storeOpts, store.WithMaxRetries(opts.MaxRetries))
	}
	leaseOpts := []lease.Option{lease.WithLocker(opts.Locker)}
	if opts.WarningDays > 0 {
		leaseOpts = append(leaseOpts, lease.WithWarningDays(opts.WarningDays))
	}

	trail := audit.NewTrail(opts.Publisher, log)
	reconciler := billing.NewReconciler(trail)
	invoices := billing.NewInvoiceService(reconciler, trail)
	scheduler := billing.NewScheduler(trail)

	return &Core{
		Store:     store.New(db, storeOpts...),
		Trail:     trail,
		Registry:  registry.New(trail, log),
		Contracts: lease.NewService(trail, scheduler, invoices, log, leaseOpts...),
		Invoices:  invoices,
		Payments:  reconciler,
		Scheduler: scheduler,
	}
}

// Open connects to the database and the optional Kafka and Redis backends described by
// the environment. Close releases all of them.
func Open(ctx context.Context, log *logrus.Entry) (*Core, error) {
	dbConfig := config.GetDatabaseConfig()
	db, err := config.ConnectDatabase(dbConfig)
	if err != nil {
		return nil, err
	}
	closers := []func() error{func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}}

	opts := Options{
		WarningDays: config.GetLeaseConfig().WarningDays,
		MaxRetries:  dbConfig.MaxRetries,
	}

	if kc := config.GetKafkaConfig(); kc.Enabled {
		publisher := events.NewKafkaPublisher(kc, log)
		opts.Publisher = publisher
		closers = append(closers, publisher.Close)
		log.WithField("topic", kc.Topic).Info("publishing audit events to Kafka")
	}

	if rc := config.GetRedisConfig(); rc.Enabled {
		client, err := lock.Connect(ctx, rc)
		if err != nil {
			_ = closeAll(closers)
			return nil, err
		}
		opts.Locker = lock.NewRedisLocker(client, rc.LockTTL, log)
		closers = append(closers, client.Close)
		log.WithField("addr", rc.Addr()).Info("using Redis unit locks")
	}

	c := New(db, log, opts)
	c.closers = closers
	return c, nil
}

// Close releases the connections opened by Open, in reverse order
func (c *Core) Close() error {
	return closeAll(c.closers)
}

// Migrate applies pending schema migrations
func (c *Core) Migrate(ctx context.Context, log *logrus.Entry) error {
	return store.Migrate(ctx, c.Store.DB(), log)
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close: %w", errors.Join(errs...))
	}
	return nil
}
