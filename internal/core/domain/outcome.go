package domain

import "time"

// ActionKind is one of the moderation actions taken against a target account.
type ActionKind string

const (
	ActionMute   ActionKind = "mute"
	ActionBlock  ActionKind = "block"
	ActionReport ActionKind = "report"
)

// Actions is the fixed per-target action order: mute, then block, then report.
var Actions = []ActionKind{ActionMute, ActionBlock, ActionReport}

// ActionOutcome records the result of one action against one target.
// A failed outcome carries the provider's status and body when available.
type ActionOutcome struct {
	Target    string     `json:"target"`
	Action    ActionKind `json:"action"`
	Succeeded bool       `json:"succeeded"`
	Reason    string     `json:"reason,omitempty"`
}

// ModerationRun is the complete record of one pipeline run: the ordered
// outcome log plus per-action counters. A run never aborts on a single
// failure, so Outcomes always holds len(targets) * 3 entries.
type ModerationRun struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Channel   string    `json:"channel"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	Outcomes []ActionOutcome `json:"outcomes"`

	MutedCount    int `json:"muted_count"`
	BlockedCount  int `json:"blocked_count"`
	ReportedCount int `json:"reported_count"`
	FailedCount   int `json:"failed_count"`
}

// Record appends an outcome and updates the counters.
func (r *ModerationRun) Record(o ActionOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if !o.Succeeded {
		r.FailedCount++
		return
	}
	switch o.Action {
	case ActionMute:
		r.MutedCount++
	case ActionBlock:
		r.BlockedCount++
	case ActionReport:
		r.ReportedCount++
	}
}
