// Package lease implements the contract lifecycle: conflict checks, creation
// with invoice generation, updates, cascading deletion and status refresh.
package lease

import (
	"fmt"
	"time"

	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
)

// ConflictValidator detects overlapping contracts on a unit
type ConflictValidator struct{}

// HasConflict reports whether any contract on unitID overlaps the inclusive
// range [start, end], ignoring excludeID when set. An error means the check
// itself failed, never that a conflict was found.
func (ConflictValidator) HasConflict(uow *store.UnitOfWork, unitID uint, start, end time.Time, excludeID *uint) (bool, error) {
	q := uow.DB().Model(&models.Contract{}).
		Where("unit_id = ?", unitID).
		Where("end_date >= ? AND start_date <= ?", models.Date(start), models.Date(end))
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check contract overlap on unit %d: %w", unitID, err)
	}
	return n > 0, nil
}
