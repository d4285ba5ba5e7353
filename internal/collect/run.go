package collect

import (
	"time"

	"github.com/dgnsrekt/incidentsync/internal/data"
)

// StopReason says why a collection run ended.
type StopReason string

const (
	Completed   StopReason = "completed"
	PageCap     StopReason = "page_cap"
	ResultCap   StopReason = "result_cap"
	RateLimited StopReason = "rate_limited"
	Error       StopReason = "error"
)

// Run is one traversal of a paginated query. Items keep server page order.
type Run struct {
	Query         data.Query
	Items         []data.Record
	PagesFetched  int
	TotalCount    int
	StoppedReason StopReason
	// DelaysElapsed counts the inter-page waits that ran to completion.
	DelaysElapsed int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Partial reports whether the run ended before the whole collection was read,
// so a caller can render "showing N of M" instead of presenting it as complete.
func (r *Run) Partial() bool {
	return r.StoppedReason != Completed
}

// Remaining is how many items the server reported beyond what the run holds.
// Client-side date filtering makes this an upper bound.
func (r *Run) Remaining() int {
	if n := r.TotalCount - len(r.Items); n > 0 {
		return n
	}
	return 0
}

// DateFilter keeps only items whose Field falls within [From, To]. A zero
// bound is open. Items without a parseable date are dropped.
type DateFilter struct {
	Field string
	From  time.Time
	To    time.Time
	// EarlyExit stops after the first page whose oldest item is older than
	// From. Correct only while the server sorts by Field descending.
	EarlyExit bool
}

func (f *DateFilter) keep(r data.Record) bool {
	ts, ok := data.RecordTime(r, f.Field)
	if !ok {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}

// pastLowerBound reports whether the oldest dated item on the page is below From.
func (f *DateFilter) pastLowerBound(items []data.Record) bool {
	if !f.EarlyExit || f.From.IsZero() {
		return false
	}
	for i := len(items) - 1; i >= 0; i-- {
		if ts, ok := data.RecordTime(items[i], f.Field); ok {
			return ts.Before(f.From)
		}
	}
	return false
}

// Config bounds one collection run.
type Config struct {
	MaxPages       int
	PageSize       int
	InterPageDelay time.Duration
	// MaxResults caps the item count; zero means no cap.
	MaxResults int
	// TransientRetries is how often a non-rate-limit transient failure is
	// retried for the same page before the run gives up.
	TransientRetries int
	RetryDelay       time.Duration
	DateFilter       *DateFilter
}

func DefaultConfig() Config {
	return Config{
		MaxPages:         15,
		PageSize:         50,
		InterPageDelay:   300 * time.Millisecond,
		TransientRetries: 2,
		RetryDelay:       500 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxPages < 1 {
		c.MaxPages = d.MaxPages
	}
	if c.PageSize < 1 {
		c.PageSize = d.PageSize
	}
	if c.InterPageDelay < 0 {
		c.InterPageDelay = 0
	}
	if c.TransientRetries < 0 {
		c.TransientRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}
