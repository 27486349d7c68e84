package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/epinhell/internal/db"
	"github.com/Skotchmaster/epinhell/internal/hash"
	jwthelp "github.com/Skotchmaster/epinhell/internal/jwt"
	"github.com/Skotchmaster/epinhell/internal/logging"
	"github.com/Skotchmaster/epinhell/internal/models"
	"github.com/Skotchmaster/epinhell/internal/mykafka"
	"github.com/Skotchmaster/epinhell/internal/repo"
	"github.com/Skotchmaster/epinhell/internal/tokens"
	"github.com/Skotchmaster/epinhell/internal/transport"
)

// ErrSessionExpired accompanies ErrUnauthenticated when the access token is only expired.
var ErrSessionExpired = errors.New("access token expired")

type AuthRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	UsernameTaken(ctx context.Context, username string) (bool, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	EnsureRole(ctx context.Context, name string) error
	SaveRefreshToken(ctx context.Context, tok *models.RefreshToken) error
	RotateRefreshToken(ctx context.Context, oldJTI, rawOld string, next *models.RefreshToken) error
	RevokeRefreshToken(ctx context.Context, rawToken string) error
}

type AuthService struct {
	Repo          AuthRepo
	AccessSecret  []byte
	RefreshSecret []byte
	Events        mykafka.Publisher
}

type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

type LoginResult struct {
	UserID       string
	Username     string
	Role         string
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

// Register creates a user with the user role and signs them in.
func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := Validate(req); err != nil {
		return nil, err
	}

	taken, err := s.Repo.UsernameTaken(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, NewValidationError("username", "is already taken")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, NewValidationError("username", "is already taken")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	l.Info("user_registered", "user_id", user.ID)
	publish(ctx, s.Events, mykafka.TopicUserEvents, user.ID, map[string]any{
		"type":     "register",
		"userID":   user.ID,
		"username": user.Username,
	})

	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	if err := Validate(transport.LoginRequest{Username: username, Password: password}); err != nil {
		return nil, err
	}

	user, err := s.Repo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	res, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, mykafka.TopicUserEvents, user.ID, map[string]any{
		"type":   "login",
		"userID": user.ID,
	})
	return res, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*LoginResult, error) {
	now := time.Now()
	accessExp := now.Add(tokens.AccessTTL)
	refreshExp := now.Add(tokens.RefreshTTL)

	access, err := tokens.NewAccessToken(s.AccessSecret, user.ID, user.Role, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, jti, err := tokens.NewRefreshToken(s.RefreshSecret, user.ID, user.Role, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.Repo.SaveRefreshToken(ctx, refreshRow(user, refresh, jti, refreshExp)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return loginResult(user, access, refresh, accessExp, refreshExp), nil
}

func refreshRow(user *models.User, raw, jti string, exp time.Time) *models.RefreshToken {
	return &models.RefreshToken{
		UserID:    user.ID,
		Role:      user.Role,
		TokenHash: jwthelp.Sha256Hex(raw),
		JTI:       jti,
		ExpiresAt: exp.Unix(),
	}
}

func loginResult(user *models.User, access, refresh string, accessExp, refreshExp time.Time) *LoginResult {
	return &LoginResult{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.Role == models.RoleAdmin,
	}
}

// Refresh exchanges a live refresh token for a new pair. The presented token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "reason", "cannot parse refresh token", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	user, err := s.Repo.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := time.Now()
	accessExp := now.Add(tokens.AccessTTL)
	refreshExp := now.Add(tokens.RefreshTTL)

	access, err := tokens.NewAccessToken(s.AccessSecret, user.ID, user.Role, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, jti, err := tokens.NewRefreshToken(s.RefreshSecret, user.ID, user.Role, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, refreshToken, refreshRow(user, refresh, jti, refreshExp)); err != nil {
		if errors.Is(err, repo.ErrRefreshRevoked) {
			l.Warn("refresh_failed", "reason", "token expired or revoked", "user_id", user.ID)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return loginResult(user, access, refresh, accessExp, refreshExp), nil
}

// Logout revokes the refresh token. An empty token is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.Repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret); err == nil {
		publish(ctx, s.Events, mykafka.TopicUserEvents, claims.Subject, map[string]any{
			"type":   "logout",
			"userID": claims.Subject,
		})
	}
	return nil
}

func (s *AuthService) Authenticate(_ context.Context, accessToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, ErrUnauthenticated
	}
	claims, err := tokens.AccessClaimsFromToken(accessToken, s.AccessSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrSessionExpired)
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{UserID: claims.Subject, Role: claims.Role}, nil
}

// EnsureRoles runs once at startup and may run again safely.
func (s *AuthService) EnsureRoles(ctx context.Context) error {
	for _, role := range []string{models.RoleAdmin, models.RoleUser} {
		if err := s.Repo.EnsureRole(ctx, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
	}
	return nil
}

// EnsureAdmin seeds an admin account unless username is empty or already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if username == "" {
		return nil
	}
	taken, err := s.Repo.UsernameTaken(ctx, username)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if taken {
		return nil
	}
	if !StrongPassword(password) {
		return NewValidationError("password", "admin password does not meet the password policy")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.User{Username: username, Email: email, PasswordHash: pwHash, Role: models.RoleAdmin}
	if err := s.Repo.CreateUser(ctx, admin); err != nil && !db.IsDuplicateKey(err) {
		return fmt.Errorf("create admin: %w", err)
	}

	logging.FromContext(ctx).Info("admin_seeded", "username", username)
	return nil
}
