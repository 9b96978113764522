package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/types"
	"github.com/hashicorp/go-hclog"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates identity use-cases.
type UserService struct {
	repo            UserRepository
	latency         Latency
	verifyPasswords bool
	log             hclog.Logger
}

func NewUserService(repo UserRepository, opts ...Option) *UserService {
	o := newOptions(opts)
	return &UserService{
		repo:            repo,
		latency:         o.latency,
		verifyPasswords: o.verifyPasswords,
		log:             o.logger.Named("users"),
	}
}

// Login resolves an email to a user. The email is matched
// case-insensitively. Unless password verification is enabled, the password
// is not checked.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	if err := s.latency(ctx); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if s.verifyPasswords && user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return types.User{}, ErrInvalidCredentials
		}
	}
	return user, nil
}

// Register creates the founding administrator of a new household.
func (s *UserService) Register(ctx context.Context, name, email, password string) (types.User, error) {
	return s.create(ctx, name, email, password, types.RoleAdministrator)
}

// AddMember creates a participant in the household.
func (s *UserService) AddMember(ctx context.Context, name, email, password string) (types.User, error) {
	return s.create(ctx, name, email, password, types.RoleParticipant)
}

func (s *UserService) create(ctx context.Context, name, email, password string, role types.Role) (types.User, error) {
	if err := s.latency(ctx); err != nil {
		return types.User{}, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return types.User{}, validationError("Name and email are required.")
	}

	user := types.User{
		ID:        newID("user"),
		Name:      name,
		Email:     email,
		Role:      role,
		AvatarURL: avatarURL(name),
		Points:    0,
	}
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = string(hashed)
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}

	s.log.Info("user created", "user_id", created.ID, "role", created.Role)
	return created, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	if err := s.latency(ctx); err != nil {
		return types.User{}, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// List returns every user in insertion order.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	if err := s.latency(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func avatarURL(name string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(name) + "/100/100"
}

func newID(prefix string) string {
	return prefix + "-" + ksuid.New().String()
}
