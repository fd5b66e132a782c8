// Package audit records every mutation as an append-only log entry written in
// the same unit of work as the change itself.
package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/pavitra93/go-lease-management/shared/events"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
)

// Table names recorded on audit entries
const (
	TableOwners      = "owners"
	TableUnits       = "units"
	TableTenants     = "tenants"
	TableContracts   = "contracts"
	TableInvoices    = "invoices"
	TablePayments    = "payments"
	TableAttachments = "attachments"
	TableUsers       = "users"
)

// Filters narrows ListEntries
type Filters struct {
	Actor  *string
	Table  *string
	Action *models.AuditAction
}

// Trail appends audit entries and streams them once committed
type Trail struct {
	entries   *store.Repository[models.AuditLog]
	publisher events.Publisher
	now       func() time.Time
	log       *logrus.Entry
}

// NewTrail creates a Trail; a nil publisher disables streaming
func NewTrail(publisher events.Publisher, log *logrus.Entry) *Trail {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Trail{
		entries:   store.NewRepository[models.AuditLog]("audit entry"),
		publisher: publisher,
		now:       time.Now,
		log:       log.WithField("component", "audit"),
	}
}

// Append records one mutation inside uow. An error here must abort the
// caller's unit of work.
func (t *Trail) Append(uow *store.UnitOfWork, action models.AuditAction, table string, rowID uint, details map[string]any) (*models.AuditLog, error) {
	entry := &models.AuditLog{
		Actor:     uow.Actor(),
		Action:    action,
		Table:     table,
		RowID:     rowID,
		Details:   datatypes.JSONMap(details),
		Timestamp: t.now().UTC(),
	}
	if err := t.entries.Create(uow, entry); err != nil {
		return nil, fmt.Errorf("failed to append audit entry for %s %d: %w", table, rowID, err)
	}

	event := events.Event{
		ID:         uuid.New(),
		Type:       events.TypeAuditAppended,
		UnitOfWork: uow.ID(),
		AuditID:    entry.ID,
		Actor:      entry.Actor,
		Action:     string(entry.Action),
		Table:      entry.Table,
		RowID:      entry.RowID,
		Details:    details,
		OccurredAt: entry.Timestamp,
	}
	uow.AfterCommit(func() {
		if err := t.publisher.Publish(event); err != nil {
			t.log.WithError(err).WithField("audit_id", event.AuditID).Warn("Audit event not published")
		}
	})

	uow.Log().WithFields(logrus.Fields{
		"action":   action,
		"table":    table,
		"row_id":   rowID,
		"audit_id": entry.ID,
	}).Debug("Audit entry appended")

	return entry, nil
}

// GetEntry returns one audit entry
func (t *Trail) GetEntry(uow *store.UnitOfWork, id uint) (*models.AuditLog, error) {
	return t.entries.Get(uow, id)
}

// ListEntries returns audit entries newest first
func (t *Trail) ListEntries(uow *store.UnitOfWork, q store.ListQuery, f Filters) (*models.Page[models.AuditLog], error) {
	return t.entries.List(uow, q,
		store.Equal("actor", f.Actor),
		store.Equal("table_name", f.Table),
		store.Equal("action", f.Action),
	)
}

// Changes builds update details from field name to new value, skipping
// entries whose value did not change
type Changes map[string]any

// Set records field as changed when before and after differ
func (c Changes) Set(field string, before, after any) {
	if fmt.Sprint(before) != fmt.Sprint(after) {
		c[field] = after
	}
}
