package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/platform/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

// failedAuthMessage is the single public failure string for login. Unbound
// codename and wrong access key collapse into it so callers cannot probe
// which codenames exist.
const failedAuthMessage = "Authentication failed."

type IdentityService struct {
	log     *slog.Logger
	backend domain.IdentityBackend
}

func NewIdentityService(log *slog.Logger, backend domain.IdentityBackend) *IdentityService {
	return &IdentityService{log: log, backend: backend}
}

// Register binds a new codename to a fresh identity. Retrying a rejected
// registration leaves earlier state untouched.
func (s *IdentityService) Register(ctx context.Context, nickname, secret string) (domain.AuthResult, error) {
	return s.register(ctx, nickname, secret, domain.RoleUser)
}

// Seed creates a pre-provisioned identity with an explicit role. Used at
// startup on the simulated backend.
func (s *IdentityService) Seed(ctx context.Context, nickname, secret, role string) error {
	res, err := s.register(ctx, nickname, secret, role)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("seed %q: %s", nickname, res.Message)
	}
	return nil
}

func (s *IdentityService) register(ctx context.Context, nickname, secret, role string) (domain.AuthResult, error) {
	ctx, span := tracer.Start(ctx, "IdentityService.Register", trace.WithAttributes(
		attribute.String("nickname", nickname),
	))
	defer span.End()
	if nickname == "" || secret == "" {
		return domain.AuthResult{Success: false, Message: "Codename and access key are required."}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return domain.AuthResult{}, err
	}
	user := domain.User{
		ID:          uuid.NewString(),
		Nickname:    nickname,
		IsAnonymous: true,
		Role:        role,
		JoinedAt:    time.Now(),
	}
	if err := s.backend.CreateUser(ctx, user, string(hash)); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			metrics.AuthFailuresTotal.Inc()
			s.log.InfoContext(ctx, "identity - register - codename taken", "nickname", nickname)
			return domain.AuthResult{Success: false, Message: "Codename already taken."}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend write failed")
		s.log.ErrorContext(ctx, "identity - register - backend failed", "nickname", nickname, "err", err)
		return domain.AuthResult{}, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	s.log.InfoContext(ctx, "identity - register - success", "nickname", nickname, "user_id", user.ID)
	return domain.AuthResult{Success: true, User: &user}, nil
}

// Login verifies a codename and access key. The two internal failure kinds
// are logged distinctly but leave through one public message.
func (s *IdentityService) Login(ctx context.Context, nickname, secret string) (domain.AuthResult, error) {
	ctx, span := tracer.Start(ctx, "IdentityService.Login", trace.WithAttributes(
		attribute.String("nickname", nickname),
	))
	defer span.End()
	user, hash, err := s.backend.LookupNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			metrics.AuthFailuresTotal.Inc()
			s.log.InfoContext(ctx, "identity - login - identity not found", "nickname", nickname)
			return domain.AuthResult{Success: false, Message: failedAuthMessage}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend read failed")
		s.log.ErrorContext(ctx, "identity - login - backend failed", "nickname", nickname, "err", err)
		return domain.AuthResult{}, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		metrics.AuthFailuresTotal.Inc()
		s.log.InfoContext(ctx, "identity - login - invalid credential", "nickname", nickname)
		return domain.AuthResult{Success: false, Message: failedAuthMessage}, nil
	}
	s.log.InfoContext(ctx, "identity - login - success", "nickname", nickname, "user_id", user.ID)
	return domain.AuthResult{Success: true, User: user}, nil
}
