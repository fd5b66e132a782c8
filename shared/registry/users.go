package registry

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavitra93/go-lease-management/shared/apperror"
	"github.com/pavitra93/go-lease-management/shared/audit"
	"github.com/pavitra93/go-lease-management/shared/models"
	"github.com/pavitra93/go-lease-management/shared/store"
	"github.com/pavitra93/go-lease-management/shared/validation"
)

// UserInput describes a new operator account
type UserInput struct {
	Username string          `json:"username" validate:"required,min=3,max=32"`
	Password string          `json:"password" validate:"required,min=6,max=72"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=admin staff"`
	IsActive *bool           `json:"is_active"`
}

// UserUpdate holds the editable account fields. Nil fields are left alone.
type UserUpdate struct {
	Username *string          `json:"username" validate:"omitempty,min=3,max=32"`
	Password *string          `json:"password" validate:"omitempty,min=6,max=72"`
	Role     *models.UserRole `json:"role" validate:"omitempty,oneof=admin staff"`
	IsActive *bool            `json:"is_active"`
}

// UserFilters narrows ListUsers
type UserFilters struct {
	Username *string
	Role     *models.UserRole
	IsActive *bool
}

// UserService manages operator accounts. Accounts are hard-deleted.
type UserService struct {
	users *store.Repository[models.User]
	trail *audit.Trail
	log   *logrus.Entry
	cost  int
}

func NewUserService(trail *audit.Trail, log *logrus.Entry) *UserService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &UserService{
		users: store.NewRepository[models.User]("user"),
		trail: trail,
		log:   log,
		cost:  bcrypt.DefaultCost,
	}
}

// WithCost overrides the bcrypt cost, mostly for tests
func (s *UserService) WithCost(cost int) *UserService {
	s.cost = cost
	return s
}

// AddUser creates an account. Role defaults to staff and accounts start active.
func (s *UserService) AddUser(uow *store.UnitOfWork, in UserInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := requireFree(uow, s.users, "username", in.Username, 0); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	u := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}
	if err := s.users.Create(uow, u); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"username": u.Username,
		"role":     u.Role,
		"uow_id":   uow.ID(),
	}).Info("User created")

	_, err = s.trail.Append(uow, models.ActionAdd, audit.TableUsers, u.ID, map[string]any{
		"username":  u.Username,
		"role":      string(u.Role),
		"is_active": u.IsActive,
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateAdmin adds an active admin account
func (s *UserService) CreateAdmin(uow *store.UnitOfWork, username, password string) (*models.User, error) {
	active := true
	return s.AddUser(uow, UserInput{
		Username: username,
		Password: password,
		Role:     models.RoleAdmin,
		IsActive: &active,
	})
}

// UpdateUser edits an account. A new password is re-hashed and never logged.
func (s *UserService) UpdateUser(uow *store.UnitOfWork, id uint, upd UserUpdate) (*models.User, error) {
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}
	u, err := s.users.Get(uow, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	if upd.Username != nil && *upd.Username != u.Username {
		if err := requireFree(uow, s.users, "username", *upd.Username, u.ID); err != nil {
			return nil, err
		}
		changes.Set("username", u.Username, *upd.Username)
		u.Username = *upd.Username
	}
	if upd.Password != nil {
		hash, err := s.hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
		changes["password"] = "changed"
	}
	if upd.Role != nil {
		changes.Set("role", string(u.Role), string(*upd.Role))
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		changes.Set("is_active", u.IsActive, *upd.IsActive)
		u.IsActive = *upd.IsActive
	}

	if err := s.users.Save(uow, u); err != nil {
		return nil, err
	}
	if _, err := s.trail.Append(uow, models.ActionUpdate, audit.TableUsers, u.ID, changes); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes an account
func (s *UserService) DeleteUser(uow *store.UnitOfWork, id uint) error {
	return remove(uow, s.users, s.trail, audit.TableUsers, id)
}

// GetUser returns an account by id or a NotFound error
func (s *UserService) GetUser(uow *store.UnitOfWork, id uint) (*models.User, error) {
	return s.users.Get(uow, id)
}

// ListUsers returns accounts newest first
func (s *UserService) ListUsers(uow *store.UnitOfWork, q store.ListQuery, f UserFilters) (*models.Page[models.User], error) {
	return s.users.List(uow, q,
		store.Contains("username", f.Username),
		store.Equal("role", f.Role),
		store.Equal("is_active", f.IsActive),
	)
}

func (s *UserService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperror.Wrap(apperror.KindValidation, err, "cannot hash password")
	}
	return string(b), nil
}
