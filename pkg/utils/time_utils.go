package utils

import "time"

// Clock is injected into services so tests can fast-forward time.
type Clock func() time.Time

// Epoch values are stored as unix seconds everywhere.
func NowUnixSeconds() int64 { return time.Now().Unix() }

func FormatRFC3339(t int64) string {
	if t <= 0 {
		return ""
	}
	return time.Unix(t, 0).UTC().Format(time.RFC3339)
}
