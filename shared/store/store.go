// Package store provides the unit of work and generic repository every lease
// operation runs through.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrClosed is returned when committing a unit of work that already finished
var ErrClosed = errors.New("unit of work already closed")

// Store opens units of work on a database
type Store struct {
	db         *gorm.DB
	log        *logrus.Entry
	maxRetries int
	backoff    time.Duration
}

// Option configures a Store
type Option func(*Store)

// WithMaxRetries sets how often Do re-runs a unit of work after a serialization failure
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithBackoff sets the base delay between retries
func WithBackoff(d time.Duration) Option {
	return func(s *Store) {
		s.backoff = d
	}
}

// WithLogger sets the logger units of work derive their entries from
func WithLogger(log *logrus.Entry) Option {
	return func(s *Store) {
		s.log = log
	}
}

// New creates a Store
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:         db,
		log:        logrus.NewEntry(logrus.StandardLogger()),
		maxRetries: 3,
		backoff:    20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying handle. Mutations must go through a UnitOfWork.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Begin opens a unit of work acting on behalf of actor. PostgreSQL units of
// work run SERIALIZABLE so concurrent conflict checks cannot both pass.
func (s *Store) Begin(ctx context.Context, actor string) (*UnitOfWork, error) {
	var opts []*sql.TxOptions
	if s.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	tx := s.db.WithContext(ctx).Begin(opts...)
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", tx.Error)
	}

	id := uuid.New()
	return &UnitOfWork{
		tx:    tx,
		ctx:   ctx,
		id:    id,
		actor: actor,
		log:   s.log.WithFields(logrus.Fields{"uow_id": id.String(), "actor": actor}),
	}, nil
}

// Do runs fn inside a unit of work, committing when fn succeeds and rolling
// back otherwise. Serialization failures re-run fn from scratch.
func (s *Store) Do(ctx context.Context, actor string, fn func(uow *UnitOfWork) error) error {
	for attempt := 0; ; attempt++ {
		err := s.run(ctx, actor, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt >= s.maxRetries {
			return err
		}

		delay := s.backoff * time.Duration(1<<attempt)
		s.log.WithError(err).WithField("attempt", attempt+1).Warnf("Retrying unit of work in %s", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (s *Store) run(ctx context.Context, actor string, fn func(uow *UnitOfWork) error) (err error) {
	uow, err := s.Begin(ctx, actor)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
	}()

	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			uow.Log().WithError(rbErr).Warn("Rollback failed")
		}
		return err
	}
	return uow.Commit()
}

// UnitOfWork is one transaction plus the actor it runs for. Hooks registered
// with AfterCommit run only once the transaction is durable.
type UnitOfWork struct {
	tx          *gorm.DB
	ctx         context.Context
	id          uuid.UUID
	actor       string
	log         *logrus.Entry
	afterCommit []func()
	finally     []func()
	closed      bool
}

// DB returns the transaction handle
func (u *UnitOfWork) DB() *gorm.DB {
	return u.tx
}

func (u *UnitOfWork) Context() context.Context {
	return u.ctx
}

func (u *UnitOfWork) ID() uuid.UUID {
	return u.id
}

// Actor is the user recorded on audit entries written in this unit of work
func (u *UnitOfWork) Actor() string {
	return u.actor
}

func (u *UnitOfWork) Log() *logrus.Entry {
	return u.log
}

// AfterCommit registers fn to run after a successful commit
func (u *UnitOfWork) AfterCommit(fn func()) {
	u.afterCommit = append(u.afterCommit, fn)
}

// Finally registers fn to run when the unit of work ends either way
func (u *UnitOfWork) Finally(fn func()) {
	u.finally = append(u.finally, fn)
}

// Commit commits the transaction and runs AfterCommit hooks
func (u *UnitOfWork) Commit() error {
	if u.closed {
		return ErrClosed
	}
	u.closed = true

	err := u.tx.Commit().Error
	u.runFinally()
	if err != nil {
		return fmt.Errorf("failed to commit unit of work: %w", translate(err, "unit of work"))
	}

	for _, fn := range u.afterCommit {
		fn()
	}
	return nil
}

// Rollback discards the transaction. Rolling back a finished unit of work is a no-op.
func (u *UnitOfWork) Rollback() error {
	if u.closed {
		return nil
	}
	u.closed = true

	err := u.tx.Rollback().Error
	u.runFinally()
	return err
}

func (u *UnitOfWork) runFinally() {
	for i := len(u.finally) - 1; i >= 0; i-- {
		u.finally[i]()
	}
}
