package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/auth"
	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// AuthService issues access tokens for the development login. Production
// deployments put an identity provider in front and only reuse the verifier.
type AuthService struct {
	actors   repository.ActorRepository
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(actors repository.ActorRepository, tokenMgr *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{actors: actors, tokenMgr: tokenMgr, logger: logger}
}

// Login checks credentials and returns a signed token for the actor.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Actor, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("email and password are required", nil)
	}
	actor, err := s.actors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			auth.BurnCompare(password)
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(actor.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !actor.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account inactive")
	}
	token, exp, err := s.tokenMgr.GenerateToken(actor.ID, actor.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("actor logged in", zap.String("actor_id", actor.ID), zap.String("role", string(actor.Role)))
	return actor, token, exp, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
