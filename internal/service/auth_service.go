package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"authgate/internal/auth"
	apperrors "authgate/internal/errors"
	"authgate/internal/model"
	"authgate/internal/repository"
)

// AuthService orchestrates registration, credential verification and token
// issuance.
type AuthService interface {
	Register(ctx context.Context, name, email, password, role string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GetMe(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) (*model.User, string, error)
	Logout(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	users      repository.UserRepository
	jwtService *auth.JWTService
	tokens     auth.TokenStoreInterface

	bcryptCost        int
	allowRegisterRole bool
}

// NewAuthService creates a new authentication service. When allowRegisterRole
// is false every self-registered account is forced to the "user" role.
func NewAuthService(users repository.UserRepository, jwtService *auth.JWTService, tokens auth.TokenStoreInterface, bcryptCost int, allowRegisterRole bool) AuthService {
	return &authService{
		users:             users,
		jwtService:        jwtService,
		tokens:            tokens,
		bcryptCost:        bcryptCost,
		allowRegisterRole: allowRegisterRole,
	}
}

// Register creates a new user and issues its first token.
func (s *authService) Register(ctx context.Context, name, email, password, role string) (*model.User, string, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("check email existence: %w", err)
	}

	if role == "" || !s.allowRegisterRole {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return nil, "", model.ErrInvalidRole
	}

	user := &model.User{
		Name:       name,
		Email:      email,
		Password:   password,
		Role:       role,
		Active:     true,
		BcryptCost: s.bcryptCost,
	}

	// Hashing happens in the model's BeforeSave hook; the unique index backs
	// up the existence check above under concurrent registration.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrEmailTaken) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, _, err := s.jwtService.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller; the account-active check runs
// only after the password matched, so deactivation status is not leaked to
// unauthenticated callers.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if !user.CheckPassword(password) {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if !user.Active {
		return nil, "", apperrors.ErrAccountDeactivated
	}

	token, _, err := s.jwtService.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// GetMe resolves the current user; the record may have been deleted between
// token issuance and use.
func (s *authService) GetMe(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// UpdatePassword re-verifies the current secret, persists the new hash,
// invalidates every previously issued token via the revocation watermark and
// returns a fresh token.
func (s *authService) UpdatePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) (*model.User, string, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrUserNotFound
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if !user.CheckPassword(currentPassword) {
		return nil, "", apperrors.ErrIncorrectPassword
	}

	user.Password = newPassword
	user.BcryptCost = s.bcryptCost
	if err := s.users.UpdatePassword(ctx, user); err != nil {
		return nil, "", fmt.Errorf("update password: %w", err)
	}

	// Reject tokens minted before this moment; the fresh token below carries
	// a later issued-at and passes the watermark.
	if err := s.tokens.RevokeUserTokensBefore(ctx, user.ID, time.Now(), s.jwtService.TTL()); err != nil {
		return nil, "", fmt.Errorf("revoke prior tokens: %w", err)
	}

	token, _, err := s.jwtService.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// Logout denylists the presented token for its remaining lifetime.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	return s.tokens.RevokeToken(ctx, claims.ID, remaining)
}
