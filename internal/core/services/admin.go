package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ghostsignal/internal/core/contracts"
	"ghostsignal/internal/core/domain"
	"ghostsignal/internal/platform/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AdminService aggregates moderation state across the identity backend, the
// blocklist, and the process counters. Stats are derived on every request;
// nothing is cached.
type AdminService struct {
	log       *slog.Logger
	backend   domain.IdentityBackend
	blocklist contracts.Blocklist
	messages  *MessageService
}

func NewAdminService(log *slog.Logger, backend domain.IdentityBackend, blocklist contracts.Blocklist, messages *MessageService) *AdminService {
	return &AdminService{
		log:       log,
		backend:   backend,
		blocklist: blocklist,
		messages:  messages,
	}
}

func (s *AdminService) GetStats(ctx context.Context) (domain.AdminStats, error) {
	ctx, span := tracer.Start(ctx, "AdminService.GetStats")
	defer span.End()
	users, err := s.backend.CountUsers(ctx)
	if err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "admin - get stats - user count failed", "err", err)
		return domain.AdminStats{}, err
	}
	blocked, err := s.blocklist.CountBlocked(ctx)
	if err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "admin - get stats - blocklist count failed", "err", err)
		return domain.AdminStats{}, err
	}
	return domain.AdminStats{
		ActiveUsers:    users,
		ActiveRooms:    1,
		MessagesSent:   int64(metrics.CounterValue(metrics.MessagesSentTotal)),
		BandwidthUsage: fmt.Sprintf("%.2f MB", metrics.CounterValue(metrics.BandwidthBytesTotal)/(1024*1024)),
		BlockedIPs:     blocked,
	}, nil
}

func (s *AdminService) GetUsers(ctx context.Context) ([]domain.User, error) {
	return s.backend.ListUsers(ctx)
}

// BlockUser removes the user from the roster, records their address on the
// blocklist, and posts a SYSTEM notice to the room. Already-removed users
// are treated as blocked rather than failed so the operation stays
// retry-safe.
func (s *AdminService) BlockUser(ctx context.Context, userID, addr string) error {
	ctx, span := tracer.Start(ctx, "AdminService.BlockUser", trace.WithAttributes(
		attribute.String("user.id", userID),
	))
	defer span.End()

	var nickname string
	if users, err := s.backend.ListUsers(ctx); err == nil {
		for _, u := range users {
			if u.ID == userID {
				nickname = u.Nickname
				break
			}
		}
	}

	if err := s.backend.RemoveUser(ctx, userID); err != nil && !errors.Is(err, domain.ErrIdentityNotFound) {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "admin - block user - remove failed", "user_id", userID, "err", err)
		return err
	}
	if addr != "" {
		if err := s.blocklist.BlockAddr(ctx, addr); err != nil {
			span.RecordError(err)
			s.log.ErrorContext(ctx, "admin - block user - blocklist failed", "user_id", userID, "err", err)
			return err
		}
	}

	notice := "A user has been removed by moderation."
	if nickname != "" {
		notice = fmt.Sprintf("%s has been removed by moderation.", nickname)
	}
	if err := s.messages.System(ctx, notice); err != nil {
		s.log.WarnContext(ctx, "admin - block user - notice failed", "user_id", userID, "err", err)
	}

	s.log.InfoContext(ctx, "admin - block user - success", "user_id", userID)
	return nil
}
