package runstate

import (
	"strings"
	"time"
)

// ItemStatus is the final outcome of one item within a run.
type ItemStatus string

const (
	ItemProcessed ItemStatus = "processed"
	ItemSkipped   ItemStatus = "skipped"
	ItemFailed    ItemStatus = "failed"
	ItemNoVariant ItemStatus = "no_variant"
)

// Run is one orchestrator invocation.
type Run struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Finished        bool
	Posture         string
	Processed       int
	Skipped         int
	Failed          int
	NoVariant       int
	RateLimitEvents int
}

// Item is the recorded outcome of one item within a run.
type Item struct {
	Collection string
	ItemID     string
	Title      string
	Status     ItemStatus
	Failure    string
	Languages  []string
	UpdatedAt  time.Time
}

func joinLanguages(langs []string) string {
	return strings.Join(langs, ",")
}

func splitLanguages(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
