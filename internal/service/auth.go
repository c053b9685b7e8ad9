package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"license-key-server/internal/database"
	"license-key-server/internal/logger"
	"license-key-server/internal/model"
	"license-key-server/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService struct {
	db     *database.DB
	tokens *util.TokenManager
	log    *zap.Logger
}

func NewAuthService(db *database.DB, tokens *util.TokenManager, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{db: db, tokens: tokens, log: log}
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Login checks the credentials and issues a bearer token. Every attempt for
// an existing user is written to the login log.
func (s *AuthService) Login(ctx context.Context, input model.LoginInput, ip, userAgent string) (*LoginResult, error) {
	user, err := s.db.FindUserByUsername(ctx, input.Username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	entry := &model.LoginLog{
		UserID:    user.ID,
		Username:  user.Username,
		IP:        ip,
		UserAgent: userAgent,
		Status:    "failed",
	}

	if user.Status != model.StatusActive ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		if err := s.db.RecordLogin(ctx, entry); err != nil {
			logger.WithContext(ctx, s.log).Warn("record failed login", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry.Status = "success"
	if err := s.db.RecordLogin(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.db.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.db.FindUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if user.Status != model.StatusActive {
		return nil, fmt.Errorf("%w: user is disabled", ErrUnauthorized)
	}
	return user, nil
}

// Register creates another administrator or viewer account.
func (s *AuthService) Register(ctx context.Context, actorID uint, input model.RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	role := input.Role
	if role == "" {
		role = model.RoleAdmin
	}
	if role != model.RoleAdmin && role != model.RoleViewer {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		Password: string(hashedPassword),
		Role:     role,
		Status:   model.StatusActive,
	}
	err = s.db.Transaction(ctx, func(tx *database.DB) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return logOperation(ctx, tx, actorID, model.ActionUserCreate, "user",
			strconv.FormatUint(uint64(user.ID), 10), map[string]string{"username": username, "role": role})
	})
	if errors.Is(err, database.ErrConflict) {
		return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) LoginLogs(ctx context.Context, userID uint, page, pageSize int) ([]model.LoginLog, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.db.ListLoginLogs(ctx, userID, page, pageSize)
}
