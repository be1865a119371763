package repository

import (
	"context"
	"time"
)

// Session represents one continuous (or currently open) period of observed
// use of a single platform. EndTime is nil while the session is open; at
// most one open session exists per platform at any time.
type Session struct {
	ID              string     `json:"id"`
	Platform        string     `json:"platform"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int64      `json:"duration_minutes"`
}

// DailyStatistic aggregates usage for one calendar date. TotalMinutes equals
// the sum of PlatformBreakdown values after every session close.
type DailyStatistic struct {
	Date              string           `json:"date"`
	TotalMinutes      int64            `json:"total_minutes"`
	PlatformBreakdown map[string]int64 `json:"platform_breakdown"`
	SessionCount      int64            `json:"session_count"`
}

// Frequency controls how early warnings fire relative to the hard limits.
type Frequency string

const (
	FrequencyLow    Frequency = "low"
	FrequencyMedium Frequency = "medium"
	FrequencyHigh   Frequency = "high"
)

// Valid reports whether f is one of the supported frequency levels.
func (f Frequency) Valid() bool {
	return f == FrequencyLow || f == FrequencyMedium || f == FrequencyHigh
}

// Default settings values, applied at first initialization and after a reset.
const (
	DefaultDailyLimitMinutes   = 60
	DefaultSessionLimitMinutes = 15
	DefaultFrequency           = FrequencyMedium
)

// Settings is the singleton user-configured policy input. Extra holds the
// last settings payload verbatim so unknown keys survive round trips.
type Settings struct {
	DailyLimitMinutes     int                    `json:"daily_limit_minutes"`
	SessionLimitMinutes   int                    `json:"session_limit_minutes"`
	InterventionFrequency Frequency              `json:"intervention_frequency"`
	Extra                 map[string]interface{} `json:"extra,omitempty"`
}

// UsageStats is a read-only projection combining the current open session,
// today's aggregate and the configured limits. When Platform is set the
// numbers are restricted to that platform; otherwise they are system-wide
// and the current session is the most recently opened one of any platform.
type UsageStats struct {
	TodayMinutes          int64            `json:"today_minutes"`
	DailyGoalMinutes      int              `json:"daily_goal_minutes"`
	CurrentSessionMinutes int64            `json:"current_session_minutes"`
	SessionGoalMinutes    int              `json:"session_goal_minutes"`
	TimesOpenedToday      int64            `json:"times_opened_today"`
	Platform              string           `json:"platform,omitempty"`
	Platforms             map[string]int64 `json:"platforms,omitempty"`
}

// UsageRepository defines session and aggregate storage operations. Every
// method runs as one atomic transaction; implementations wrap failures in
// *StorageError.
type UsageRepository interface {
	// UpsertObservation extends the open session for platform (recomputing
	// its duration as floor minutes since start) or, when none is open,
	// creates a new session at observedAt and increments today's session
	// count, lazily creating the day's statistics row.
	UpsertObservation(ctx context.Context, platform string, observedAt time.Time) error

	// CloseSession finalizes the open session for platform and folds its
	// duration into the day's totals. No-op when no session is open.
	CloseSession(ctx context.Context, platform string, closedAt time.Time) error

	// ReadUsageStats returns the projection for asOf's date. An empty
	// platform selects the overall view.
	ReadUsageStats(ctx context.Context, platform string, asOf time.Time) (*UsageStats, error)

	// OpenPlatform returns the platform of the most recently opened session
	// that is still open, or "" when none is.
	OpenPlatform(ctx context.Context) (string, error)

	// Reset destroys all persisted state and reinitializes default settings.
	Reset(ctx context.Context) error
}

// SettingsRepository defines access to the singleton settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)

	// Update merges the recognized fields of patch into the settings row.
	// Omitted fields are left unchanged; the full patch is retained
	// verbatim for forward compatibility.
	Update(ctx context.Context, patch map[string]interface{}) error
}
