package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cekilis/secret-santa-api/internal/models"
	"github.com/cekilis/secret-santa-api/pkg/config"
	appErrors "github.com/cekilis/secret-santa-api/pkg/errors"
	"github.com/cekilis/secret-santa-api/pkg/mailer"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

// AuthService issues and validates stateless JWTs. Access, refresh and reset
// tokens share the signing key and are told apart by a type claim, so a
// refresh token can never pass as an access token.
type AuthService struct {
	repo     userStore
	sender   mailer.Sender
	cfg      config.JWTConfig
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(repo userStore, sender mailer.Sender, cfg config.JWTConfig, logger *zap.Logger, now func() time.Time) *AuthService {
	if sender == nil {
		sender = mailer.NopSender{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		repo:     repo,
		sender:   sender,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
		now:      now,
	}
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.TokenResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issueTokens(user)
}

// Login verifies credentials and issues tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.TokenResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	claims, err := s.parseToken(req.RefreshToken, models.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	return s.issueTokens(user)
}

// ForgotPassword emails a reset token to the account's address. The outcome
// is identical whether or not the email is registered, so the endpoint
// cannot be used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	token, err := s.signToken(user, models.TokenTypeReset, s.cfg.ResetExpiration)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign reset token")
	}

	subject, body, err := mailer.RenderPasswordReset(req.Language, token)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render reset email")
	}
	if err := s.sender.Send(ctx, user.Email, subject, body); err != nil {
		s.logger.Error("failed to send reset email", zap.String("user_id", user.ID), zap.Error(err))
		return appErrors.Clone(appErrors.ErrTransport, "")
	}

	s.logger.Info("password reset email sent", zap.String("user_id", user.ID))
	return nil
}

// ResetPassword validates a reset token and stores the new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	claims, err := s.parseToken(req.Token, models.TokenTypeReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, claims.UserID, string(hash), s.now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	s.logger.Info("password reset", zap.String("user_id", claims.UserID))
	return nil
}

// ValidateToken checks an access token and returns its claims. Used by the
// authentication middleware.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	return s.parseToken(tokenString, models.TokenTypeAccess)
}

func (s *AuthService) issueTokens(user *models.User) (*models.TokenResponse, error) {
	access, err := s.signToken(user, models.TokenTypeAccess, s.cfg.Expiration)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign access token")
	}
	refresh, err := s.signToken(user, models.TokenTypeRefresh, s.cfg.RefreshExpiration)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign refresh token")
	}

	now := s.now().UTC()
	return &models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.Expiration.Seconds()),
		IssuedAt:     now,
		User:         models.UserInfo{ID: user.ID, Email: user.Email},
	}, nil
}

func (s *AuthService) signToken(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := models.JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *AuthService) parseToken(tokenString, expectedType string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if claims.TokenType != expectedType {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "wrong token type")
	}
	return claims, nil
}
