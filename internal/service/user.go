package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/recipe-app-api/internal/model"
	"github.com/iliyamo/recipe-app-api/internal/repository"
	"github.com/iliyamo/recipe-app-api/internal/utils"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// UserStore is the persistence the user service needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

// TokenStore is the persistence the token issuer needs.
type TokenStore interface {
	GetByUser(ctx context.Context, userID uint64) (*model.AuthToken, error)
	Create(ctx context.Context, t *model.AuthToken) error
	GetUserByKey(ctx context.Context, key string) (*model.User, error)
	DeleteByUser(ctx context.Context, userID uint64) error
}

// UserFields are the optional attributes accepted when creating a user.
// Nil flags keep the defaults (active, not staff).
type UserFields struct {
	Name     string
	IsActive *bool
	IsStaff  *bool
}

// UserUpdate lists the profile fields to change; nil means unchanged.
type UserUpdate struct {
	Name     *string
	Password *string
}

// UserService implements the user store and the token issuer.
type UserService struct {
	users      UserStore
	tokens     TokenStore
	bcryptCost int
}

func NewUserService(users UserStore, tokens TokenStore, bcryptCost int) *UserService {
	return &UserService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser creates an active, non-staff user.  An empty password leaves
// the account without a usable password.
func (s *UserService) CreateUser(ctx context.Context, email, password string, f UserFields) (*model.User, error) {
	u := &model.User{
		Email:    NormalizeEmail(email),
		Name:     strings.TrimSpace(f.Name),
		IsActive: true,
	}
	if f.IsActive != nil {
		u.IsActive = *f.IsActive
	}
	if f.IsStaff != nil {
		u.IsStaff = *f.IsStaff
	}
	if err := s.create(ctx, u, password); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateSuperuser is CreateUser with staff and superuser forced on.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string, f UserFields) (*model.User, error) {
	u := &model.User{
		Email:       NormalizeEmail(email),
		Name:        strings.TrimSpace(f.Name),
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if f.IsActive != nil {
		u.IsActive = *f.IsActive
	}
	if err := s.create(ctx, u, password); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) create(ctx context.Context, u *model.User, password string) error {
	if u.Email == "" {
		return NewValidationError("email", MsgRequired)
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return NewValidationError("email", MsgEmailTaken)
		}
		return err
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	if password == "" {
		return utils.UnusablePassword()
	}
	if len(password) > maxPasswordBytes {
		return "", NewValidationError("password", fmt.Sprintf("Ensure this field has no more than %d bytes.", maxPasswordBytes))
	}
	return utils.HashPassword(password, s.bcryptCost)
}

// UpdateUser applies upd to u and persists it.  A new password is hashed
// before storing.  u is modified in place and returned.
func (s *UserService) UpdateUser(ctx context.Context, u *model.User, upd UserUpdate) (*model.User, error) {
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Password != nil {
		hash, err := s.hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckPassword reports whether candidate matches the stored hash.
func (s *UserService) CheckPassword(u *model.User, candidate string) bool {
	return utils.VerifyPassword(u.PasswordHash, candidate)
}

// GetUser loads a user by id.
func (s *UserService) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// IssueToken exchanges credentials for the user's token, creating it on
// first use.
func (s *UserService) IssueToken(ctx context.Context, email, password string) (*model.AuthToken, error) {
	email = NormalizeEmail(email)
	verr := &ValidationError{}
	if email == "" {
		verr.Add("email", MsgBlank)
	}
	if password == "" {
		verr.Add("password", MsgBlank)
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive || !s.CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}

	t, err := s.tokens.GetByUser(ctx, u.ID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	key, err := utils.NewTokenKey()
	if err != nil {
		return nil, err
	}
	t = &model.AuthToken{Key: key, UserID: u.ID}
	if err := s.tokens.Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrTokenExists) {
			// a concurrent login created it first
			return s.tokens.GetByUser(ctx, u.ID)
		}
		return nil, err
	}
	return t, nil
}

// Authenticate resolves a token key to its active owner.
func (s *UserService) Authenticate(ctx context.Context, key string) (*model.User, error) {
	if key == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.tokens.GetUserByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// RevokeToken deletes the user's token.
func (s *UserService) RevokeToken(ctx context.Context, userID uint64) error {
	return s.tokens.DeleteByUser(ctx, userID)
}
