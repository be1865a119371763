package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

func TestSettingsDefaults(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db.DB)

	s, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, repository.DefaultDailyLimitMinutes, s.DailyLimitMinutes)
	assert.Equal(t, repository.DefaultSessionLimitMinutes, s.SessionLimitMinutes)
	assert.Equal(t, repository.DefaultFrequency, s.InterventionFrequency)
}

func TestSettingsPartialUpdateLeavesOthersUnchanged(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, map[string]interface{}{
		"daily_limit_minutes": float64(120),
	}))

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, s.DailyLimitMinutes)
	assert.Equal(t, repository.DefaultSessionLimitMinutes, s.SessionLimitMinutes)
	assert.Equal(t, repository.DefaultFrequency, s.InterventionFrequency)

	require.NoError(t, repo.Update(ctx, map[string]interface{}{
		"session_limit_minutes":  float64(10),
		"intervention_frequency": "high",
	}))

	s, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, s.DailyLimitMinutes)
	assert.Equal(t, 10, s.SessionLimitMinutes)
	assert.Equal(t, repository.FrequencyHigh, s.InterventionFrequency)
}

func TestSettingsUnknownKeysPreserved(t *testing.T) {
	db := newTestDB(t)
	repo := NewSettingsRepository(db.DB)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, map[string]interface{}{
		"daily_limit_minutes": float64(45),
		"theme":               "dark",
		"notification_sound":  true,
	}))

	s, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 45, s.DailyLimitMinutes)
	assert.Equal(t, "dark", s.Extra["theme"])
	assert.Equal(t, true, s.Extra["notification_sound"])
}
