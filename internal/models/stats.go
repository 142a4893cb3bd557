package models

import "math"

// Stats is the aggregate snapshot served to the dashboard. Computed on
// read, never persisted.
type Stats struct {
	TotalMessages  int64 `json:"total_messages"`
	TotalOpens     int64 `json:"total_opens"`
	MessagesOpened int64 `json:"messages_opened"`
	OpenRate       int   `json:"open_rate"`
}

// ComputeOpenRate returns round(100 * opened / total) as a whole
// percentage, and 0 for an empty store rather than dividing by zero.
func ComputeOpenRate(opened, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(opened) / float64(total)))
}
