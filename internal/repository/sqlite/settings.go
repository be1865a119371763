package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

type settingsRow struct {
	DailyLimitMinutes     int    `db:"daily_limit_minutes"`
	SessionLimitMinutes   int    `db:"session_limit_minutes"`
	InterventionFrequency string `db:"intervention_frequency"`
	SettingsJSON          string `db:"settings_json"`
}

// SettingsRepository implements repository.SettingsRepository using sqlite
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new sqlite settings repository
func NewSettingsRepository(db *sqlx.DB) repository.SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the singleton settings row, falling back to defaults when the
// row is missing.
func (r *SettingsRepository) Get(ctx context.Context) (*repository.Settings, error) {
	const op = "get settings"

	var row settingsRow
	err := r.db.GetContext(ctx, &row,
		`SELECT daily_limit_minutes, session_limit_minutes, intervention_frequency, settings_json
		 FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return &repository.Settings{
			DailyLimitMinutes:     repository.DefaultDailyLimitMinutes,
			SessionLimitMinutes:   repository.DefaultSessionLimitMinutes,
			InterventionFrequency: repository.DefaultFrequency,
		}, nil
	}
	if err != nil {
		return nil, repository.NewStorageError(op, err)
	}

	settings := &repository.Settings{
		DailyLimitMinutes:     row.DailyLimitMinutes,
		SessionLimitMinutes:   row.SessionLimitMinutes,
		InterventionFrequency: repository.Frequency(row.InterventionFrequency),
	}
	if row.SettingsJSON != "" && row.SettingsJSON != "{}" {
		extra := map[string]interface{}{}
		if uerr := json.Unmarshal([]byte(row.SettingsJSON), &extra); uerr != nil {
			return nil, repository.NewStorageError(op, uerr)
		}
		settings.Extra = extra
	}
	return settings, nil
}

// Update merges recognized fields of patch into the settings row and stores
// the whole patch verbatim so unknown keys are preserved.
func (r *SettingsRepository) Update(ctx context.Context, patch map[string]interface{}) error {
	const op = "update settings"

	setClause := ""
	args := []interface{}{}
	appendSet := func(column string, value interface{}) {
		if setClause != "" {
			setClause += ", "
		}
		setClause += column + " = ?"
		args = append(args, value)
	}

	if v, ok := intField(patch, "daily_limit_minutes"); ok {
		appendSet("daily_limit_minutes", v)
	}
	if v, ok := intField(patch, "session_limit_minutes"); ok {
		appendSet("session_limit_minutes", v)
	}
	if v, ok := patch["intervention_frequency"].(string); ok {
		appendSet("intervention_frequency", v)
	}

	encoded, err := json.Marshal(patch)
	if err != nil {
		return repository.NewStorageError(op, err)
	}
	appendSet("settings_json", string(encoded))

	_, err = r.db.ExecContext(ctx, "UPDATE settings SET "+setClause+" WHERE id = 1", args...)
	return repository.NewStorageError(op, err)
}

// intField reads an integer-valued key from a decoded JSON object, where
// numbers arrive as float64.
func intField(patch map[string]interface{}, key string) (int, bool) {
	switch v := patch[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
