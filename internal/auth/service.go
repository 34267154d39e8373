package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
)

// RegisterRedirect is where a client is sent after logging in with an
// unknown username.
const RegisterRedirect = "/register"

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	PromoteUser(ctx context.Context, id, passwordHash, email, fullName string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, p models.UserPatch) (*models.User, error)
}

// Outcome is the result kind of a login attempt.
type Outcome int

const (
	OutcomeAuthenticated Outcome = iota
	OutcomeNeedsRegistration
)

// LoginResult is returned by Login. NeedsRegistration is a normal outcome,
// not an error.
type LoginResult struct {
	Outcome  Outcome
	Redirect string
	User     *models.User
}

// Service implements registration, login and profile updates.
type Service struct {
	users UserStore
	log   *zap.Logger
	now   func() time.Time
}

func NewService(users UserStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, log: log, now: time.Now}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Register creates a registered user, or promotes a placeholder that matches
// by username or email.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if blank(req.Username) || blank(req.Password) || blank(req.Email) || blank(req.FullName) {
		return nil, fmt.Errorf("%w: username, password, email and fullName are required", common.ErrValidation)
	}

	existing, err := s.users.FindUserByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}
	if existing != nil && !existing.Status.IsPlaceholder() {
		return nil, fmt.Errorf("register %q: %w", req.Username, common.ErrConflict)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		u, err := s.users.PromoteUser(ctx, existing.ID, hash, req.Email, req.FullName)
		if err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
		s.log.Info("placeholder promoted", zap.String("user_id", u.ID), zap.String("username", u.Username))
		return u, nil
	}

	joined := s.now().UTC()
	email := req.Email
	u, err := s.users.CreateUser(ctx, &models.User{
		Username:     req.Username,
		Email:        &email,
		PasswordHash: hash,
		FullName:     req.FullName,
		JoinDate:     &joined,
		Status:       models.StatusRegistered,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login verifies credentials. An unknown username creates a placeholder user
// and asks the caller to register.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	if blank(req.Username) || blank(req.Password) {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	u, err := s.users.GetUserByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, common.ErrNotFound):
		p, err := s.createPlaceholder(ctx, req.Username)
		if err != nil {
			return nil, err
		}
		return needsRegistration(p), nil
	case err != nil:
		return nil, fmt.Errorf("login: %w", err)
	}

	if !checkPassword(u.PasswordHash, req.Password) {
		return nil, common.ErrInvalidCredentials
	}
	if u.Status.IsPlaceholder() {
		return needsRegistration(u), nil
	}
	return &LoginResult{Outcome: OutcomeAuthenticated, User: u}, nil
}

func needsRegistration(u *models.User) *LoginResult {
	return &LoginResult{Outcome: OutcomeNeedsRegistration, Redirect: RegisterRedirect, User: u}
}

// createPlaceholder inserts a placeholder for username. A concurrent login
// that wins the insert is not an error; its row is returned instead.
func (s *Service) createPlaceholder(ctx context.Context, username string) (*models.User, error) {
	hash, err := randomCredential()
	if err != nil {
		return nil, err
	}
	p, err := s.users.CreateUser(ctx, &models.User{
		Username:     username,
		PasswordHash: hash,
		Status:       models.StatusPlaceholder,
	})
	if errors.Is(err, common.ErrConflict) {
		p, err = s.users.GetUserByUsername(ctx, username)
	}
	if err != nil {
		return nil, fmt.Errorf("create placeholder: %w", err)
	}
	s.log.Info("placeholder created", zap.String("user_id", p.ID), zap.String("username", username))
	return p, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// UpdateUser writes the set profile fields. Any update completes the
// registration of a placeholder.
func (s *Service) UpdateUser(ctx context.Context, id string, p models.UserPatch) (*models.User, error) {
	if v, ok := p.Username.Get(); ok && blank(v) {
		return nil, fmt.Errorf("%w: username cannot be empty", common.ErrValidation)
	}
	// An empty email clears it so it does not collide with other cleared emails.
	if v, ok := p.Email.Get(); ok && v != nil && blank(*v) {
		p.Email = models.Some[*string](nil)
	}

	u, err := s.users.UpdateUser(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	return u, nil
}
