package domain

import "time"

// ToolUsage is the per-tool counter. There is exactly one document per
// ToolName and Count is at least 1 once the tool has been used.
type ToolUsage struct {
	ToolName  string
	Count     int64
	UpdatedAt time.Time
}
