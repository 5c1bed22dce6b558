package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"freshmart/internal/domain"
	"freshmart/internal/repos"
)

var (
	ErrBadCreds   = errors.New("invalid email or password")
	ErrEmailTaken = errors.New("email already registered")
)

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService { return &AuthService{Users: users} }

// Register creates a shopper account. Admins are only created by seeding.
func (s *AuthService) Register(ctx context.Context, email, username, password, address, contact string) (*domain.User, error) {
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !repos.IsNoRows(err) {
		return nil, domain.Persistence(err, "could not check email")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:       uuid.NewString(),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Username: username,
		Hash:     string(h),
		Address:  address,
		Contact:  contact,
		Role:     domain.RoleUser,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, domain.Persistence(err, "could not create account")
	}
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

// UpdateProfile changes the contact details of u and returns the stored copy.
func (s *AuthService) UpdateProfile(ctx context.Context, u *domain.User, email, username, address, contact string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if other, err := s.Users.ByEmail(ctx, email); err == nil && other.ID != u.ID {
		return nil, ErrEmailTaken
	} else if err != nil && !repos.IsNoRows(err) {
		return nil, domain.Persistence(err, "could not check email")
	}
	next := *u
	next.Email, next.Username, next.Address, next.Contact = email, username, address, contact
	if err := s.Users.UpdateProfile(ctx, next); err != nil {
		return nil, userErr(err, "could not update profile")
	}
	return &next, nil
}

// ChangePassword requires the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, u *domain.User, current, next string) error {
	stored, err := s.Users.ByID(ctx, u.ID)
	if err != nil {
		return userErr(err, "could not load account")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Hash), []byte(current)) != nil {
		return domain.Errorf(domain.KindInvalidInput, "current password is incorrect")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.Users.SetPassword(ctx, u.ID, string(h)); err != nil {
		return userErr(err, "could not change password")
	}
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, domain.Persistence(err, "could not list users")
	}
	return users, nil
}

// SetRole changes another account's role. Admins cannot demote themselves.
func (s *AuthService) SetRole(ctx context.Context, actor *domain.User, id, role string) error {
	if actor != nil && actor.ID == id {
		return domain.Errorf(domain.KindInvalidInput, "you cannot change your own role")
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.Errorf(domain.KindInvalidInput, "unknown role %q", role)
	}
	if err := s.Users.SetRole(ctx, id, role); err != nil {
		return userErr(err, "could not change role")
	}
	return nil
}

// DeleteUser removes another account.
func (s *AuthService) DeleteUser(ctx context.Context, actor *domain.User, id string) error {
	if actor != nil && actor.ID == id {
		return domain.Errorf(domain.KindInvalidInput, "you cannot delete your own account")
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return userErr(err, "could not delete user")
	}
	return nil
}

func userErr(err error, msg string) error {
	if repos.IsNoRows(err) {
		return &domain.Error{Kind: domain.KindNotFound, Message: "user not found", Err: err}
	}
	return domain.Persistence(err, "%s", msg)
}
