// Package storetest opens migrated SQLite stores for package tests.
package storetest

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-lease-management/shared/config"
	"github.com/pavitra93/go-lease-management/shared/store"
)

// Actor is the actor recorded by test units of work
const Actor = "tester"

// Logger returns a logger that discards output
func Logger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// Open returns a store backed by a fresh migrated database file
func Open(t testing.TB) *store.Store {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "lease.db"),
	}
	db, err := config.ConnectDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), db, Logger()))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return store.New(db, store.WithLogger(Logger()))
}

// Do runs fn in a committed unit of work and fails the test on error
func Do(t testing.TB, s *store.Store, fn func(uow *store.UnitOfWork) error) {
	t.Helper()
	require.NoError(t, s.Do(context.Background(), Actor, fn))
}
