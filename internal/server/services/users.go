package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/server/auth"
	"github.com/dmitrijs2005/mneme/internal/server/config"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	instance                    string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		instance:                    cfg.Instance,
	}
}

// NewUser is the input for account creation.
type NewUser struct {
	UserName  string
	Password  string
	Encrypted bool
	Admin     bool
}

func normalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateUser stores a new account with a bcrypt-hashed password. Usernames
// are unique after lower-casing.
func (s *UserService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	userName := normalizeUsername(in.UserName)
	if userName == "" || in.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrorInvalidInput)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		UserName:     userName,
		PasswordHash: hash,
		Encrypted:    in.Encrypted,
		Admin:        in.Admin,
		Tier:         common.TierFree,
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, fmt.Errorf("username %q is taken: %w", userName, common.ErrorConflict)
		}
		return nil, err
	}
	return user, nil
}

// RegisterPublic is self-registration. It is refused on private instances
// and never grants admin.
func (s *UserService) RegisterPublic(ctx context.Context, in NewUser) (*models.User, error) {
	if s.instance == common.InstancePrivate {
		return nil, fmt.Errorf("registration is closed on a private instance: %w", common.ErrorInvalidInput)
	}
	in.Admin = false
	return s.CreateUser(ctx, in)
}

// RegisterByAdmin creates an account on behalf of an administrator.
func (s *UserService) RegisterByAdmin(ctx context.Context, caller *models.User, in NewUser) (*models.User, error) {
	if caller == nil || !caller.Admin {
		return nil, common.ErrorForbidden
	}
	return s.CreateUser(ctx, in)
}

// Authenticate checks credentials. Unknown usernames and wrong passwords
// both return common.ErrorUnauthorized after the same amount of work.
func (s *UserService) Authenticate(ctx context.Context, userName, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, normalizeUsername(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnPasswordCheck(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Login authenticates and issues an access token.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {
	user, err := s.Authenticate(ctx, userName, password)
	if err != nil {
		return "", err
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// ResolveToken maps a bearer token to a live user. A valid token for a user
// that no longer exists is rejected.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrInvalidToken)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, skip, limit int) ([]*models.User, error) {
	skip, limit = page(skip, limit)
	return s.repomanager.Users(s.db).List(ctx, skip, limit)
}

// UpdateUser renames the user and/or flips the encrypted flag. At least one
// change is required.
func (s *UserService) UpdateUser(ctx context.Context, user *models.User, newUserName *string, encrypted *bool) (*models.User, error) {
	newUserName = optional(newUserName)
	if newUserName == nil && encrypted == nil {
		return nil, fmt.Errorf("nothing to update: %w", common.ErrorInvalidInput)
	}

	updated := *user
	if newUserName != nil {
		updated.UserName = normalizeUsername(*newUserName)
	}
	if encrypted != nil {
		updated.Encrypted = *encrypted
	}

	if err := s.repomanager.Users(s.db).Update(ctx, &updated); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, fmt.Errorf("username %q is taken: %w", updated.UserName, common.ErrorConflict)
		}
		return nil, err
	}
	return &updated, nil
}

// UpdatePassword requires the current password and a different new one.
func (s *UserService) UpdatePassword(ctx context.Context, user *models.User, currentPassword, newPassword string) error {
	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		return fmt.Errorf("wrong password: %w", common.ErrorInvalidInput)
	}
	if newPassword == "" {
		return fmt.Errorf("new password is empty: %w", common.ErrorInvalidInput)
	}
	if newPassword == currentPassword {
		return fmt.Errorf("new password must differ from the current one: %w", common.ErrorInvalidInput)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash)
}

// DeleteUser removes the account and everything it owns. Deleting an
// already deleted user returns common.ErrorNotFound.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	return s.repomanager.Users(s.db).Delete(ctx, id)
}

// Exists reports whether an account with userName is present.
func (s *UserService) Exists(ctx context.Context, userName string) (bool, error) {
	_, err := s.repomanager.Users(s.db).GetByUsername(ctx, normalizeUsername(userName))
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}
