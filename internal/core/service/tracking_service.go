package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdftoolpro/tracking-api/internal/api/metrics"
	"github.com/pdftoolpro/tracking-api/internal/core/domain"
	"github.com/pdftoolpro/tracking-api/internal/core/ports"
)

// IdempotencyStore abstracts the Redis claim of Idempotency-Key values.
type IdempotencyStore interface {
	// Claim records key and reports whether this call was the first to do so.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type TrackingService struct {
	visits ports.VisitRepository
	tools  ports.ToolUsageRepository
	idem   IdempotencyStore
	log    zerolog.Logger
	now    func() time.Time
}

// NewTrackingService returns a TrackingService. idem may be nil, in which
// case Idempotency-Key values are ignored.
func NewTrackingService(
	visits ports.VisitRepository,
	tools ports.ToolUsageRepository,
	idem IdempotencyStore,
	log zerolog.Logger,
) *TrackingService {
	return &TrackingService{
		visits: visits,
		tools:  tools,
		idem:   idem,
		log:    log,
		now:    time.Now,
	}
}

// RecordVisit appends a visit record.
func (s *TrackingService) RecordVisit(ctx context.Context, in ports.VisitInput) error {
	page := strings.TrimSpace(in.Page)
	if page == "" {
		return fmt.Errorf("%w: page is required", domain.ErrValidation)
	}

	visit := &domain.Visit{
		Page:      page,
		UserAgent: in.UserAgent,
		IP:        in.IP,
		Timestamp: s.now().UTC(),
	}
	if err := s.visits.Insert(ctx, visit); err != nil {
		return fmt.Errorf("record visit: %w", err)
	}

	metrics.VisitsRecordedTotal.Inc()
	return nil
}

// RecordToolUsage increments the counter for in.ToolName.
func (s *TrackingService) RecordToolUsage(ctx context.Context, in ports.ToolUsageInput) (*ports.ToolUsageResult, error) {
	name := strings.TrimSpace(in.ToolName)
	if name == "" {
		return nil, fmt.Errorf("%w: toolName is required", domain.ErrValidation)
	}

	key := ""
	if in.IdempotencyKey != "" && s.idem != nil {
		key = "tool-usage:" + name + ":" + in.IdempotencyKey
		first, err := s.idem.Claim(ctx, key)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("tool", name).Msg("idempotency claim failed, counting anyway")
			key = ""
		case !first:
			return s.replay(ctx, name)
		}
	}

	usage, err := s.tools.Increment(ctx, name)
	if err != nil {
		if key != "" {
			if relErr := s.idem.Release(ctx, key); relErr != nil {
				s.log.Warn().Err(relErr).Str("tool", name).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("record tool usage: %w", err)
	}

	audience := "anonymous"
	if in.UserID != "" {
		audience = "authenticated"
	}
	metrics.ToolUsagesRecordedTotal.WithLabelValues(audience).Inc()

	s.log.Debug().
		Str("tool", usage.ToolName).
		Int64("count", usage.Count).
		Str("user_id", in.UserID).
		Msg("tool usage recorded")

	return &ports.ToolUsageResult{ToolName: usage.ToolName, Count: usage.Count}, nil
}

func (s *TrackingService) replay(ctx context.Context, name string) (*ports.ToolUsageResult, error) {
	metrics.IdempotentReplaysTotal.Inc()

	usage, err := s.tools.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrToolUsageNotFound) {
			// The claim outlived a failed increment; report nothing counted yet.
			return &ports.ToolUsageResult{ToolName: name, Replayed: true}, nil
		}
		return nil, fmt.Errorf("record tool usage: %w", err)
	}
	s.log.Info().Str("tool", name).Msg("idempotent replay")
	return &ports.ToolUsageResult{ToolName: usage.ToolName, Count: usage.Count, Replayed: true}, nil
}

// UsageStats returns every tool counter, highest count first.
func (s *TrackingService) UsageStats(ctx context.Context) ([]ports.ToolUsageStat, error) {
	usages, err := s.tools.ListByCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}

	stats := make([]ports.ToolUsageStat, 0, len(usages))
	for _, u := range usages {
		stats = append(stats, ports.ToolUsageStat{ToolName: u.ToolName, Count: u.Count})
	}
	// Ties keep the store's order.
	slices.SortStableFunc(stats, func(a, b ports.ToolUsageStat) int { return cmp.Compare(b.Count, a.Count) })
	return stats, nil
}
