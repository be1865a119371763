package intervention

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

func mediumSettings() *repository.Settings {
	return &repository.Settings{
		DailyLimitMinutes:     60,
		SessionLimitMinutes:   15,
		InterventionFrequency: repository.FrequencyMedium,
	}
}

func TestEvaluateMediumFrequency(t *testing.T) {
	tests := []struct {
		name       string
		stats      repository.UsageStats
		wantNeeded bool
		wantReason Reason
	}{
		{
			name:       "all zero",
			stats:      repository.UsageStats{},
			wantNeeded: false,
			wantReason: ReasonNone,
		},
		{
			name:       "session at 80 percent of limit",
			stats:      repository.UsageStats{CurrentSessionMinutes: 12},
			wantNeeded: true,
			wantReason: ReasonSessionLimitApproaching,
		},
		{
			name:       "session at limit",
			stats:      repository.UsageStats{CurrentSessionMinutes: 15},
			wantNeeded: true,
			wantReason: ReasonSessionLimitExceeded,
		},
		{
			name:       "daily at 66 percent of limit",
			stats:      repository.UsageStats{CurrentSessionMinutes: 5, TodayMinutes: 40},
			wantNeeded: true,
			wantReason: ReasonDailyLimitApproaching,
		},
		{
			name:       "daily at limit",
			stats:      repository.UsageStats{TodayMinutes: 60},
			wantNeeded: true,
			wantReason: ReasonDailyLimitExceeded,
		},
		{
			name:       "frequent opening",
			stats:      repository.UsageStats{TimesOpenedToday: 11},
			wantNeeded: true,
			wantReason: ReasonFrequentOpening,
		},
		{
			name:       "exactly ten opens is fine",
			stats:      repository.UsageStats{TimesOpenedToday: 10},
			wantNeeded: false,
			wantReason: ReasonNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needed, reason := Evaluate(&tt.stats, mediumSettings())
			assert.Equal(t, tt.wantNeeded, needed)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestEvaluateFrequencyThresholds(t *testing.T) {
	// 8 of 15 minutes is 53%: warns on high, not on medium or low.
	stats := &repository.UsageStats{CurrentSessionMinutes: 8}

	settings := mediumSettings()
	settings.InterventionFrequency = repository.FrequencyHigh
	needed, reason := Evaluate(stats, settings)
	assert.True(t, needed)
	assert.Equal(t, ReasonSessionLimitApproaching, reason)

	settings.InterventionFrequency = repository.FrequencyMedium
	needed, _ = Evaluate(stats, settings)
	assert.False(t, needed)

	settings.InterventionFrequency = repository.FrequencyLow
	needed, _ = Evaluate(stats, settings)
	assert.False(t, needed)
}

func TestEvaluateExceededWinsOverApproaching(t *testing.T) {
	stats := &repository.UsageStats{CurrentSessionMinutes: 20, TodayMinutes: 200}
	needed, reason := Evaluate(stats, mediumSettings())
	assert.True(t, needed)
	assert.Equal(t, ReasonSessionLimitExceeded, reason)
}

func TestPresentationFor(t *testing.T) {
	assert.Equal(t, PresentationNotification,
		PresentationFor(&repository.UsageStats{CurrentSessionMinutes: 30, TodayMinutes: 90}))
	assert.Equal(t, PresentationOverlay,
		PresentationFor(&repository.UsageStats{CurrentSessionMinutes: 31}))
	assert.Equal(t, PresentationOverlay,
		PresentationFor(&repository.UsageStats{TodayMinutes: 91}))
}
