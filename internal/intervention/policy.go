// Package intervention decides whether usage warrants alerting the user.
package intervention

import (
	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

// Reason classifies why an intervention fired.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonSessionLimitExceeded    Reason = "session_limit_exceeded"
	ReasonDailyLimitExceeded      Reason = "daily_limit_exceeded"
	ReasonSessionLimitApproaching Reason = "session_limit_approaching"
	ReasonDailyLimitApproaching   Reason = "daily_limit_approaching"
	ReasonFrequentOpening         Reason = "frequent_opening"
)

// Presentation is how the boundary layer should surface an intervention.
type Presentation string

const (
	PresentationNotification Presentation = "notification"
	PresentationOverlay      Presentation = "overlay"
)

// More than this many sessions opened in one day triggers the
// frequent_opening reason.
const frequentOpeningLimit = 10

// Heavy-usage cutoffs for the intrusive presentation.
const (
	overlaySessionMinutes = 30
	overlayDailyMinutes   = 90
)

// thresholds returns the session and daily warning fractions for a
// configured frequency. Higher frequency means earlier warnings.
func thresholds(f repository.Frequency) (session, daily float64) {
	switch f {
	case repository.FrequencyLow:
		return 0.90, 0.80
	case repository.FrequencyMedium:
		return 0.75, 0.60
	default: // high
		return 0.50, 0.40
	}
}

// Evaluate checks stats against the configured limits. First match wins.
func Evaluate(stats *repository.UsageStats, settings *repository.Settings) (bool, Reason) {
	sessionThreshold, dailyThreshold := thresholds(settings.InterventionFrequency)

	dailyLimit := float64(settings.DailyLimitMinutes)
	sessionLimit := float64(settings.SessionLimitMinutes)
	today := float64(stats.TodayMinutes)
	current := float64(stats.CurrentSessionMinutes)

	switch {
	case current >= sessionLimit:
		return true, ReasonSessionLimitExceeded
	case today >= dailyLimit:
		return true, ReasonDailyLimitExceeded
	case current >= sessionLimit*sessionThreshold:
		return true, ReasonSessionLimitApproaching
	case today >= dailyLimit*dailyThreshold:
		return true, ReasonDailyLimitApproaching
	case stats.TimesOpenedToday > frequentOpeningLimit:
		return true, ReasonFrequentOpening
	}

	return false, ReasonNone
}

// PresentationFor picks the delivery style from raw usage alone; it does not
// depend on which reason fired.
func PresentationFor(stats *repository.UsageStats) Presentation {
	if stats.CurrentSessionMinutes > overlaySessionMinutes || stats.TodayMinutes > overlayDailyMinutes {
		return PresentationOverlay
	}
	return PresentationNotification
}
