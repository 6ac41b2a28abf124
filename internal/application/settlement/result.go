package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
)

// TenantResult reports what a rollover did to one mess
type TenantResult struct {
	TenantID   uuid.UUID        `json:"tenant_id"`
	FromPeriod mess.Period      `json:"from_period"`
	ToPeriod   mess.Period      `json:"to_period"`
	Status     RolloverStatus   `json:"status"`
	ArchiveID  uuid.UUID        `json:"archive_id,omitempty"`
	Resumed    bool             `json:"resumed,omitempty"`
	Cleared    mess.ClearedRows `json:"cleared"`
	Reason     string           `json:"reason,omitempty"`
	Error      string           `json:"error,omitempty"`
	Duration   time.Duration    `json:"duration_ns"`
	Err        error            `json:"-"`
}

func (r *TenantResult) skip(reason string) TenantResult {
	r.Status = RolloverSkipped
	r.Reason = reason
	return *r
}

func (r *TenantResult) fail(err error) TenantResult {
	r.Status = RolloverFailed
	r.Err = err
	r.Error = err.Error()
	return *r
}

// BatchResult collects the per-mess results of one RunAll
type BatchResult struct {
	Target    mess.Period    `json:"target"`
	Trigger   string         `json:"trigger"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration_ns"`
	Archived  int            `json:"archived"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Results   []TenantResult `json:"results"`
}

func (b *BatchResult) add(r TenantResult) {
	switch r.Status {
	case RolloverArchived:
		b.Archived++
	case RolloverSkipped:
		b.Skipped++
	case RolloverFailed:
		b.Failed++
	}
	b.Results = append(b.Results, r)
}

// Failures returns the results that failed
func (b *BatchResult) Failures() []TenantResult {
	var out []TenantResult
	for _, r := range b.Results {
		if r.Status == RolloverFailed {
			out = append(out, r)
		}
	}
	return out
}
