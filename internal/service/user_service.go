package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validate "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
)

const (
	MinPasswordLength = 6
	// bcrypt only hashes the first 72 bytes and rejects longer input
	MaxPasswordLength = 72
)

var emails = validate.New()

// UserService ведёт учётные записи и выдаёт токены сессии
type UserService struct {
	users  repository.UserRepository
	tx     repository.TxManager
	tokens *auth.Tokens
	now    func() time.Time
}

func NewUserService(users repository.UserRepository, tx repository.TxManager, tokens *auth.Tokens) *UserService {
	return &UserService{users: users, tx: tx, tokens: tokens, now: func() time.Time { return time.Now().UTC() }}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Session is a user together with a freshly issued token
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a customer account. Self-signup never grants admin.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := repository.NormalizeEmail(in.Email)
	var v validator
	v.check(strings.TrimSpace(in.Name) != "", "name", "is required")
	v.check(validEmail(email), "email", "must be a valid email address")
	checkPassword(&v, in.Password)
	if err := v.err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Phone:        strings.TrimSpace(in.Phone),
		JoinedDate:   s.now(),
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return repository.ErrConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return s.users.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// Login checks credentials. Unknown email and wrong password fail the same way.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *UserService) session(u *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.users.GetByID(ctx, id)
}

// ProfilePatch holds the self-service fields; nil leaves a field unchanged
type ProfilePatch struct {
	Name    *string         `json:"name"`
	Phone   *string         `json:"phone"`
	Address *domain.Address `json:"address"`
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "name", Message: "must not be empty"}}}
	}
	var out *domain.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			u.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Phone != nil {
			u.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.Address != nil {
			a := *patch.Address
			u.Address = &a
		}
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.users.Delete(ctx, id)
}

func (s *UserService) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	if !role.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "role", Message: "must be user or admin"}}}
	}
	var out *domain.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		u.Role = role
		if err := s.users.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureAdmin creates the admin account if missing, or promotes an existing
// account with that email. An existing password is left alone.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = repository.NormalizeEmail(email)
	var v validator
	v.check(validEmail(email), "email", "must be a valid email address")
	checkPassword(&v, password)
	if err := v.err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	var out *domain.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			if !u.IsAdmin() {
				u.Role = domain.RoleAdmin
				if err := s.users.Update(ctx, u); err != nil {
					return err
				}
			}
			out = u
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		u = &domain.User{
			ID:           uuid.NewString(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			JoinedDate:   s.now(),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validEmail(email string) bool {
	return emails.Var(email, "required,email") == nil
}

func checkPassword(v *validator, password string) {
	v.check(len(password) >= MinPasswordLength, "password", "must be at least 6 characters")
	v.check(len(password) <= MaxPasswordLength, "password", "must be at most 72 bytes")
}
