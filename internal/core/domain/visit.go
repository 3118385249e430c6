package domain

import "time"

// Visit is a write-only record of a page or tool being opened.
type Visit struct {
	Page      string
	UserAgent string
	IP        string
	Timestamp time.Time
}
