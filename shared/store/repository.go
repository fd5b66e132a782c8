package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/models"
)

// Repository implements the shared CRUD contract for one entity type. Soft
// deleted rows are invisible to every method.
type Repository[T any] struct {
	entity string
	policy models.DeletionPolicy
}

// NewRepository creates a repository; entity names the type in error messages
func NewRepository[T any](entity string) *Repository[T] {
	var zero T
	return &Repository[T]{
		entity: entity,
		policy: models.PolicyOf(&zero),
	}
}

func (r *Repository[T]) Entity() string {
	return r.entity
}

func (r *Repository[T]) Policy() models.DeletionPolicy {
	return r.policy
}

// Get returns the row with the given id or a NotFound error
func (r *Repository[T]) Get(uow *UnitOfWork, id uint) (*T, error) {
	var row T
	if err := uow.DB().First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("%s %d not found", r.entity, id)
		}
		return nil, fmt.Errorf("failed to get %s %d: %w", r.entity, id, err)
	}
	return &row, nil
}

// Exists reports whether a live row with the given id exists
func (r *Repository[T]) Exists(uow *UnitOfWork, id uint) (bool, error) {
	var n int64
	if err := uow.DB().Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check %s %d: %w", r.entity, id, err)
	}
	return n > 0, nil
}

// Taken reports whether a live row other than excludeID has column = value
func (r *Repository[T]) Taken(uow *UnitOfWork, column string, value any, excludeID uint) (bool, error) {
	q := uow.DB().Model(new(T)).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check %s %s: %w", r.entity, column, err)
	}
	return n > 0, nil
}

// Create inserts row
func (r *Repository[T]) Create(uow *UnitOfWork, row *T) error {
	if err := uow.DB().Create(row).Error; err != nil {
		return translate(err, r.entity)
	}
	return nil
}

// Save writes every column of an existing row
func (r *Repository[T]) Save(uow *UnitOfWork, row *T) error {
	if err := uow.DB().Save(row).Error; err != nil {
		return translate(err, r.entity)
	}
	return nil
}

// Delete removes the row according to the entity's deletion policy and returns it
func (r *Repository[T]) Delete(uow *UnitOfWork, id uint) (*T, error) {
	row, err := r.Get(uow, id)
	if err != nil {
		return nil, err
	}

	tx := uow.DB()
	if r.policy == models.HardDelete {
		tx = tx.Unscoped()
	}
	if err := tx.Delete(row).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	return row, nil
}

// Find returns every live row matching filters, oldest first
func (r *Repository[T]) Find(uow *UnitOfWork, filters ...Filter) ([]T, error) {
	var rows []T
	if err := uow.DB().Scopes(scopes(filters)...).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s rows: %w", r.entity, err)
	}
	return rows, nil
}

// List returns one page of live rows matching filters, newest first
func (r *Repository[T]) List(uow *UnitOfWork, q ListQuery, filters ...Filter) (*models.Page[T], error) {
	q = q.Normalize()

	var total int64
	if err := uow.DB().Model(new(T)).Scopes(scopes(filters)...).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count %s rows: %w", r.entity, err)
	}

	rows := make([]T, 0, q.PerPage)
	err := uow.DB().Scopes(scopes(filters)...).
		Order("id DESC").
		Offset(q.Offset()).
		Limit(q.PerPage).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s rows: %w", r.entity, err)
	}

	return &models.Page[T]{
		Total:   total,
		Page:    q.Page,
		PerPage: q.PerPage,
		Data:    rows,
	}, nil
}

// DeleteWhere hard-deletes every row matching filters and returns the ids removed
func (r *Repository[T]) DeleteWhere(uow *UnitOfWork, filters ...Filter) ([]uint, error) {
	var ids []uint
	if err := uow.DB().Model(new(T)).Scopes(scopes(filters)...).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to select %s rows: %w", r.entity, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := uow.DB().Unscoped().Where("id IN ?", ids).Delete(new(T)).Error; err != nil {
		return nil, translate(err, r.entity)
	}
	return ids, nil
}
