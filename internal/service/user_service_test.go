package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := setup(t)

	sess, err := s.users.Register(ctx, RegisterInput{Name: "John", Email: " John@Example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.Token == "" || sess.User.Role != domain.RoleUser || sess.User.Email != "john@example.com" {
		t.Fatalf("unexpected session %+v", sess.User)
	}
	if sess.User.PasswordHash == "secret1" {
		t.Fatalf("password stored in clear")
	}

	if _, err := s.users.Register(ctx, RegisterInput{Name: "Other", Email: "JOHN@example.com", Password: "secret2"}); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate email: %v", err)
	}

	if _, err := s.users.Login(ctx, "john@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := s.users.Login(ctx, "john@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := s.users.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	_, err := s.users.Register(ctx, RegisterInput{Email: "not-an-email", Password: "123"})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %v", err)
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	long := strings.Repeat("a", MaxPasswordLength+1)

	_, err := s.users.Register(ctx, RegisterInput{Name: "John", Email: "john@example.com", Password: long})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, ErrInvalidInput) || verr.Fields[0].Field != "password" {
		t.Fatalf("expected password field error, got %v", err)
	}
	if _, err := s.users.EnsureAdmin(ctx, "admin@example.com", long, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ensure admin with long password: %v", err)
	}

	exact := strings.Repeat("a", MaxPasswordLength)
	if _, err := s.users.Register(ctx, RegisterInput{Name: "John", Email: "john@example.com", Password: exact}); err != nil {
		t.Fatalf("72 byte password rejected: %v", err)
	}
}

func TestRegister_EmailShape(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	for _, email := range []string{"a@b@c.com", "john@", "@example.com", "jo hn@example.com", "john.example.com"} {
		if _, err := s.users.Register(ctx, RegisterInput{Name: "John", Email: email, Password: "secret1"}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q accepted: %v", email, err)
		}
	}
	if _, err := s.users.EnsureAdmin(ctx, "root@", "admin123", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ensure admin accepted malformed email: %v", err)
	}
}

func TestUpdateProfileAndRoles(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	sess, _ := s.users.Register(ctx, RegisterInput{Name: "John", Email: "john@example.com", Password: "secret1"})

	name, phone := "John Doe", "+1-555"
	u, err := s.users.UpdateProfile(ctx, sess.User.ID, ProfilePatch{
		Name: &name, Phone: &phone,
		Address: &domain.Address{Street: "123 Main St", City: "New York", State: "NY", ZipCode: "10001"},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if u.Name != name || u.Address == nil || u.Address.City != "New York" || u.Role != domain.RoleUser {
		t.Fatalf("unexpected profile %+v", u)
	}

	if _, err := s.users.SetRole(ctx, u.ID, "owner"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role accepted: %v", err)
	}
	u, err = s.users.SetRole(ctx, u.ID, domain.RoleAdmin)
	if err != nil || !u.IsAdmin() {
		t.Fatalf("set role: %+v %v", u, err)
	}

	if err := s.users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.users.Delete(ctx, u.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	s := setup(t)

	admin, err := s.users.EnsureAdmin(ctx, "admin@example.com", "admin123", "")
	if err != nil || !admin.IsAdmin() {
		t.Fatalf("ensure admin: %+v %v", admin, err)
	}
	again, err := s.users.EnsureAdmin(ctx, "ADMIN@example.com", "different", "")
	if err != nil || again.ID != admin.ID {
		t.Fatalf("ensure admin is not idempotent: %+v %v", again, err)
	}
	if _, err := s.users.Login(ctx, "admin@example.com", "admin123"); err != nil {
		t.Fatalf("existing password must be kept: %v", err)
	}

	sess, _ := s.users.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "secret1"})
	promoted, err := s.users.EnsureAdmin(ctx, "jane@example.com", "secret1", "Jane")
	if err != nil || promoted.ID != sess.User.ID || !promoted.IsAdmin() {
		t.Fatalf("promotion: %+v %v", promoted, err)
	}
}
