// Package registry manages the parties and places a lease refers to: owners,
// units, tenants, operator accounts and document attachments.
package registry

import (
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
)

// Registry groups the CRUD services
type Registry struct {
	Owners      *OwnerService
	Units       *UnitService
	Tenants     *TenantService
	Users       *UserService
	Attachments *AttachmentService
}

// New creates every registry service on one audit trail
func New(trail *audit.Trail, log *logrus.Entry) *Registry {
	return &Registry{
		Owners:      NewOwnerService(trail),
		Units:       NewUnitService(trail),
		Tenants:     NewTenantService(trail),
		Users:       NewUserService(trail, log),
		Attachments: NewAttachmentService(trail),
	}
}

// requireLive fails with a Validation error unless repo holds a live row with id
func requireLive[T any](uow *store.UnitOfWork, repo *store.Repository[T], id uint) error {
	ok, err := repo.Exists(uow, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Validation("%s %d does not exist", repo.Entity(), id)
	}
	return nil
}

// requireFree fails with AlreadyExists when another live row holds value in column
func requireFree[T any](uow *store.UnitOfWork, repo *store.Repository[T], column string, value any, excludeID uint) error {
	taken, err := repo.Taken(uow, column, value, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.AlreadyExists("%s with %s %v already exists", repo.Entity(), column, value)
	}
	return nil
}

func remove[T any](uow *store.UnitOfWork, repo *store.Repository[T], trail *audit.Trail, table string, id uint) error {
	if _, err := repo.Delete(uow, id); err != nil {
		return err
	}
	uow.Log().WithFields(logrus.Fields{
		"entity": repo.Entity(),
		"id":     id,
		"policy": repo.Policy().String(),
	}).Info("Row deleted")

	_, err := trail.Append(uow, models.ActionDelete, table, id, map[string]any{
		"policy": repo.Policy().String(),
	})
	return err
}
