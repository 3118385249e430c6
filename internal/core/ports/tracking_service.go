package ports

import "context"

// VisitInput is the DTO passed from the transport layer to RecordVisit.
type VisitInput struct {
	Page      string
	UserAgent string
	IP        string
}

// ToolUsageInput is the DTO passed from the transport layer to RecordToolUsage.
type ToolUsageInput struct {
	ToolName string
	// UserID is empty for anonymous callers.
	UserID string
	// IdempotencyKey, when set, makes client retries count once.
	IdempotencyKey string
}

// ToolUsageResult is the counter state after a recorded use.
type ToolUsageResult struct {
	ToolName string
	Count    int64
	// Replayed is true when the idempotency key had already been seen and
	// the counter was left untouched.
	Replayed bool
}

// ToolUsageStat is a single row of the statistics endpoint.
type ToolUsageStat struct {
	ToolName string
	Count    int64
}

// TrackingService defines the visit and tool usage use cases.
type TrackingService interface {
	RecordVisit(ctx context.Context, in VisitInput) error
	RecordToolUsage(ctx context.Context, in ToolUsageInput) (*ToolUsageResult, error)
	UsageStats(ctx context.Context) ([]ToolUsageStat, error)
}
