package models

import "time"

// Recipient is a user opted into reminders together with the provider address to push to.
type Recipient struct {
	UserID      string `json:"user_id"`
	PushAddress string `json:"-"`
}

// Trigger records what started a reminder cycle.
type Trigger string

const (
	TriggerTimer  Trigger = "timer"
	TriggerManual Trigger = "manual"
	TriggerTest   Trigger = "test"
)

type DispatchOutcome struct {
	Recipient         Recipient `json:"recipient"`
	Delivered         bool      `json:"delivered"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// DispatchSummary is the result of one resolve+dispatch cycle.
// Error is set only when the whole cycle failed before any dispatch.
type DispatchSummary struct {
	RunID      string            `json:"run_id"`
	Trigger    Trigger           `json:"trigger"`
	Template   string            `json:"template,omitempty"`
	Day        string            `json:"day"`
	Date       string            `json:"date"`
	Attempted  int               `json:"attempted"`
	Delivered  int               `json:"delivered"`
	Failed     int               `json:"failed"`
	Outcomes   []DispatchOutcome `json:"outcomes,omitempty"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Tally recomputes the counters from Outcomes.
func (s *DispatchSummary) Tally() {
	s.Attempted = len(s.Outcomes)
	s.Delivered = 0
	s.Failed = 0
	for _, o := range s.Outcomes {
		if o.Delivered {
			s.Delivered++
		} else {
			s.Failed++
		}
	}
}

func (s DispatchSummary) CycleFailed() bool {
	return s.Error != ""
}

// WithoutOutcomes returns a copy with per-recipient detail stripped.
func (s DispatchSummary) WithoutOutcomes() DispatchSummary {
	s.Outcomes = nil
	return s
}

// NotificationStatus describes a user's push registration as seen by the reminder core.
type NotificationStatus struct {
	UserID     string `json:"user_id"`
	Subscribed bool   `json:"subscribed"`
	Enabled    bool   `json:"enabled"`
	HasToken   bool   `json:"has_token"`
}
