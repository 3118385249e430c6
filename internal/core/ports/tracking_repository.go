package ports

import (
	"context"

	"github.com/pdftoolpro/tracking-api/internal/core/domain"
)

// VisitRepository appends visit records.
type VisitRepository interface {
	Insert(ctx context.Context, visit *domain.Visit) error
}

// ToolUsageRepository persists the per-tool counters.
type ToolUsageRepository interface {
	// Increment atomically adds one to the counter for toolName, creating it
	// with count 1 when absent, and returns the updated record.
	Increment(ctx context.Context, toolName string) (*domain.ToolUsage, error)
	FindByName(ctx context.Context, toolName string) (*domain.ToolUsage, error)
	// ListByCount returns all counters sorted by count descending.
	ListByCount(ctx context.Context) ([]*domain.ToolUsage, error)
}
