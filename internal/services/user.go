package services

import (
	"context"

	"github.com/qbank-io/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, offset, limit int) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]types.User, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// UserUpdate is a partial update: nil fields are left untouched. Accounts are
// deactivated here rather than deleted.
type UserUpdate struct {
	Email        *string     `json:"email"`
	Role         *types.Role `json:"role"`
	IsActive     *bool       `json:"is_active"`
	PasswordHash *string     `json:"-"`
}

// Apply resolves the partial update against the current user record.
func (u UserUpdate) Apply(user types.User) types.User {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	if u.IsActive != nil {
		user.IsActive = *u.IsActive
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}
	return user
}

func (s *UserService) Update(ctx context.Context, id int, update UserUpdate) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	return s.repo.Update(ctx, update.Apply(user))
}
