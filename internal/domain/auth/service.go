package auth

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
	"stockbook/pkg/logger"
)

// UserRepository persists accounts. Implemented by the storage layer.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]User, error)
	Update(ctx context.Context, user *User) error
}

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	PasswordMinLength int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{PasswordMinLength: 8}
}

// Service provides registration, login, and staff management.
type Service struct {
	users      UserRepository
	jwtService *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(users UserRepository, jwtService *JWTService, config ServiceConfig) *Service {
	return &Service{users: users, jwtService: jwtService, config: config}
}

func (s *Service) validateNewAccount(email, password string) error {
	if email == "" {
		return apperror.NewValidation("email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.NewValidation("email", "email is not valid")
	}
	if len(password) < s.config.PasswordMinLength {
		return apperror.NewValidation("password",
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength))
	}
	return nil
}

// Register creates a new tenant with the caller as its admin owner.
// The new tenant's id is the owner's user id.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := s.validateNewAccount(req.Email, req.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("user", "email", req.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	userID := id.New()
	user := &User{
		ID:           userID,
		TenantID:     userID.String(),
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Roles:        []string{RoleAdmin},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "tenant registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// AddStaff creates a staff account inside the caller's tenant.
// Only admins may call this; enforced by the access policy upstream.
func (s *Service) AddStaff(ctx context.Context, req RegisterRequest) (*User, error) {
	caller := appctx.GetUser(ctx)
	if caller == nil {
		return nil, apperror.NewUnauthenticated("no user identity resolved")
	}
	if err := s.validateNewAccount(req.Email, req.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewDuplicate("user", "email", req.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:           id.New(),
		TenantID:     caller.TenantID,
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		Roles:        []string{RoleStaff},
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "staff account created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *User, error) {
	user, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.Active {
		return nil, nil, apperror.NewUnauthenticated("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, nil, apperror.NewUnauthenticated("invalid credentials")
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "email", user.Email)
	return &Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, user, nil
}

// ListStaff returns the caller's tenant accounts.
func (s *Service) ListStaff(ctx context.Context) ([]User, error) {
	caller := appctx.GetUser(ctx)
	if caller == nil {
		return nil, apperror.NewUnauthenticated("no user identity resolved")
	}
	return s.users.ListByTenant(ctx, caller.TenantID)
}

// Deactivate disables an account within the caller's tenant.
func (s *Service) Deactivate(ctx context.Context, userID id.ID) error {
	caller := appctx.GetUser(ctx)
	if caller == nil {
		return apperror.NewUnauthenticated("no user identity resolved")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.TenantID != caller.TenantID {
		return apperror.NewNotFound("user", userID.String())
	}
	if user.ID.String() == caller.UserID {
		return apperror.NewConflict("cannot deactivate own account")
	}

	user.Active = false
	user.UpdatedAt = time.Now()
	return s.users.Update(ctx, user)
}
