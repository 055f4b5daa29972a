package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"portfolio/internal/apperr"
	"portfolio/internal/config"
	"portfolio/internal/ids"
	"portfolio/internal/models"
	"portfolio/internal/repository"
	"portfolio/internal/security"
)

const msgInvalidCredentials = "Invalid email or password"

type OperatorStore interface {
	Create(ctx context.Context, op models.Operator) error
	FindByEmail(ctx context.Context, email string) (models.Operator, error)
	GetByID(ctx context.Context, id string) (models.Operator, error)
	Count(ctx context.Context) (int, error)
}

type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	CountByOperator(ctx context.Context, operatorID string) (int, error)
	DeleteOldest(ctx context.Context, operatorID string, keepLatest int) error
	DeleteByID(ctx context.Context, id string) error
}

type AuthService struct {
	operators OperatorStore
	sessions  SessionStore
	cfg       config.SecurityConfig
	log       zerolog.Logger
}

func NewAuthService(operators OperatorStore, sessions SessionStore, cfg config.SecurityConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		operators: operators,
		sessions:  sessions,
		cfg:       cfg,
		log:       log,
	}
}

type LoginInput struct {
	Email     string
	Password  string
	DeviceID  string
	IPAddress string
	UserAgent string
}

type RefreshInput struct {
	RefreshToken string
	DeviceID     string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	Operator     models.Operator
	DeviceID     string
	ExpiresAt    time.Time
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// Bootstrap creates the first admin from configuration when no operator
// exists yet. It does nothing once any operator is present.
func (s *AuthService) Bootstrap(ctx context.Context) error {
	email := normalizeEmail(s.cfg.BootstrapEmail)
	if email == "" || s.cfg.BootstrapPassword == "" {
		return nil
	}
	count, err := s.operators.Count(ctx)
	if err != nil {
		return apperr.Unavailable(err, "Could not count operators")
	}
	if count > 0 {
		return nil
	}

	hash, err := security.HashPassword(s.cfg.BootstrapPassword)
	if err != nil {
		return err
	}
	op := models.Operator{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Administrator",
		Role:         models.OperatorRoleAdmin,
		Status:       models.OperatorStatusActive,
	}
	if err := s.operators.Create(ctx, op); err != nil && !errors.Is(err, repository.ErrOperatorExists) {
		return apperr.Unavailable(err, "Could not create bootstrap operator")
	}
	s.log.Info().Str("email", email).Msg("bootstrap operator created")
	return nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return AuthResult{}, apperr.Validation("Email and password are required")
	}

	op, err := s.operators.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			return AuthResult{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return AuthResult{}, apperr.Unavailable(err, "Sign-in is unavailable, try again later")
	}

	ok, err := security.VerifyPassword(in.Password, op.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, apperr.Unauthorized(msgInvalidCredentials)
	}
	if op.Status != models.OperatorStatusActive {
		return AuthResult{}, apperr.Forbidden("Account suspended")
	}

	deviceID := in.DeviceID
	if deviceID == "" {
		deviceID = ids.New()
	}
	session := models.Session{
		ID:         ids.New(),
		OperatorID: op.ID,
		DeviceID:   deviceID,
		IPAddress:  in.IPAddress,
		UserAgent:  in.UserAgent,
	}
	result, err := s.issue(ctx, op, session)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.enforceSessionLimit(ctx, op.ID); err != nil {
		s.log.Warn().Err(err).Str("operator_id", op.ID).Msg("enforce session limit failed")
	}
	return result, nil
}

// Refresh rotates the refresh token of the session it belongs to.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (AuthResult, error) {
	if in.RefreshToken == "" {
		return AuthResult{}, apperr.Unauthorized("Missing refresh token")
	}
	session, err := s.sessions.FindByRefreshHash(ctx, security.HashRefreshToken(in.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return AuthResult{}, apperr.Unauthorized("Session expired, sign in again")
		}
		return AuthResult{}, apperr.Unavailable(err, "Sign-in is unavailable, try again later")
	}
	if in.DeviceID != "" && session.DeviceID != in.DeviceID {
		return AuthResult{}, apperr.Unauthorized("Session expired, sign in again")
	}
	if session.ExpiresAt.Before(time.Now()) {
		_ = s.sessions.DeleteByID(ctx, session.ID)
		return AuthResult{}, apperr.Unauthorized("Session expired, sign in again")
	}

	op, err := s.operators.GetByID(ctx, session.OperatorID)
	if err != nil {
		return AuthResult{}, apperr.Unauthorized("Session expired, sign in again")
	}
	if op.Status != models.OperatorStatusActive {
		return AuthResult{}, apperr.Forbidden("Account suspended")
	}
	return s.issue(ctx, op, session)
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return apperr.Unavailable(err, "Could not end session")
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, op models.Operator, session models.Session) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, err
	}
	session.RefreshTokenHash = refreshHash
	session.ExpiresAt = time.Now().Add(s.cfg.JWTRefreshTTL)

	accessToken, err := security.GenerateAccessToken(s.cfg.JWTAccessSecret, security.TokenInput{
		OperatorID: op.ID,
		SessionID:  session.ID,
		DeviceID:   session.DeviceID,
		Role:       string(op.Role),
	}, s.cfg.JWTAccessTTL)
	if err != nil {
		return AuthResult{}, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return AuthResult{}, apperr.Unavailable(err, "Sign-in is unavailable, try again later")
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Operator:     op,
		DeviceID:     session.DeviceID,
		ExpiresAt:    time.Now().Add(s.cfg.JWTAccessTTL),
	}, nil
}

func (s *AuthService) enforceSessionLimit(ctx context.Context, operatorID string) error {
	if s.cfg.MaxSessions <= 0 {
		return nil
	}
	count, err := s.sessions.CountByOperator(ctx, operatorID)
	if err != nil {
		return err
	}
	if count <= s.cfg.MaxSessions {
		return nil
	}
	return s.sessions.DeleteOldest(ctx, operatorID, s.cfg.MaxSessions)
}
