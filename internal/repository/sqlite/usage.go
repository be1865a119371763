// Package sqlite implements the repository interfaces using sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

const (
	timeLayout = time.RFC3339
	dateLayout = "2006-01-02"
)

// floorMinutes returns whole elapsed minutes between from and to, never
// negative.
func floorMinutes(from, to time.Time) int64 {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int64(d / time.Minute)
}

type sessionRow struct {
	ID              string         `db:"id"`
	Platform        string         `db:"platform"`
	StartTime       string         `db:"start_time"`
	EndTime         sql.NullString `db:"end_time"`
	DurationMinutes int64          `db:"duration_minutes"`
}

type statsRow struct {
	Date              string `db:"date"`
	TotalMinutes      int64  `db:"total_minutes"`
	PlatformBreakdown string `db:"platform_breakdown"`
	SessionCount      int64  `db:"session_count"`
}

// UsageRepository implements repository.UsageRepository using sqlite
type UsageRepository struct {
	db *sqlx.DB
}

// NewUsageRepository creates a new sqlite usage repository
func NewUsageRepository(db *sqlx.DB) repository.UsageRepository {
	return &UsageRepository{db: db}
}

// UpsertObservation records one "platform observed" event as a single
// read-modify-write transaction.
func (r *UsageRepository) UpsertObservation(ctx context.Context, platform string, observedAt time.Time) error {
	const op = "upsert observation"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return repository.NewStorageError(op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var open sessionRow
	err = tx.GetContext(ctx, &open,
		`SELECT id, platform, start_time, end_time, duration_minutes
		 FROM sessions WHERE platform = ? AND end_time IS NULL`, platform)

	switch {
	case err == nil:
		// Extend the open session but keep it open.
		start, perr := time.Parse(timeLayout, open.StartTime)
		if perr != nil {
			return repository.NewStorageError(op, perr)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET duration_minutes = ? WHERE id = ?`,
			floorMinutes(start, observedAt), open.ID); err != nil {
			return repository.NewStorageError(op, err)
		}

	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, platform, start_time, duration_minutes)
			 VALUES (?, ?, ?, 0)`,
			uuid.New().String(), platform, observedAt.Format(timeLayout)); err != nil {
			return repository.NewStorageError(op, err)
		}

		// New session opened: bump today's count, creating the day row
		// lazily on the first open for that date.
		date := observedAt.Format(dateLayout)
		res, err := tx.ExecContext(ctx,
			`UPDATE daily_statistics SET session_count = session_count + 1 WHERE date = ?`, date)
		if err != nil {
			return repository.NewStorageError(op, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return repository.NewStorageError(op, err)
		}
		if affected == 0 {
			breakdown, _ := json.Marshal(map[string]int64{platform: 0})
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO daily_statistics (date, total_minutes, platform_breakdown, session_count)
				 VALUES (?, 0, ?, 1)`, date, string(breakdown)); err != nil {
				return repository.NewStorageError(op, err)
			}
		}

	default:
		return repository.NewStorageError(op, err)
	}

	return repository.NewStorageError(op, tx.Commit())
}

// CloseSession finalizes the open session for platform, if any, and folds
// its duration into the day's aggregate. Idempotent.
func (r *UsageRepository) CloseSession(ctx context.Context, platform string, closedAt time.Time) error {
	const op = "close session"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return repository.NewStorageError(op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	var open sessionRow
	err = tx.GetContext(ctx, &open,
		`SELECT id, platform, start_time, end_time, duration_minutes
		 FROM sessions WHERE platform = ? AND end_time IS NULL`, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return repository.NewStorageError(op, err)
	}

	start, err := time.Parse(timeLayout, open.StartTime)
	if err != nil {
		return repository.NewStorageError(op, err)
	}
	minutes := floorMinutes(start, closedAt)

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET end_time = ?, duration_minutes = ? WHERE id = ?`,
		closedAt.Format(timeLayout), minutes, open.ID); err != nil {
		return repository.NewStorageError(op, err)
	}

	// Fold the closed duration into the aggregate for the close date. A
	// session that opened before the day row existed contributes nothing
	// until a row is created by a later open.
	date := closedAt.Format(dateLayout)
	var stats statsRow
	err = tx.GetContext(ctx, &stats,
		`SELECT date, total_minutes, platform_breakdown, session_count
		 FROM daily_statistics WHERE date = ?`, date)
	if err == nil {
		breakdown := map[string]int64{}
		if stats.PlatformBreakdown != "" {
			if uerr := json.Unmarshal([]byte(stats.PlatformBreakdown), &breakdown); uerr != nil {
				return repository.NewStorageError(op, uerr)
			}
		}
		breakdown[platform] += minutes
		encoded, merr := json.Marshal(breakdown)
		if merr != nil {
			return repository.NewStorageError(op, merr)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE daily_statistics SET total_minutes = ?, platform_breakdown = ? WHERE date = ?`,
			stats.TotalMinutes+minutes, string(encoded), date); err != nil {
			return repository.NewStorageError(op, err)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return repository.NewStorageError(op, err)
	}

	return repository.NewStorageError(op, tx.Commit())
}

// ReadUsageStats builds the UsageStats projection for asOf's date. The
// reads run in one transaction so a concurrent close cannot produce a torn
// view between the aggregate and the open-session queries.
func (r *UsageRepository) ReadUsageStats(ctx context.Context, platform string, asOf time.Time) (*repository.UsageStats, error) {
	const op = "read usage stats"
	date := asOf.Format(dateLayout)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, repository.NewStorageError(op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	dailyGoal := repository.DefaultDailyLimitMinutes
	sessionGoal := repository.DefaultSessionLimitMinutes
	var limits struct {
		Daily   int `db:"daily_limit_minutes"`
		Session int `db:"session_limit_minutes"`
	}
	err = tx.GetContext(ctx, &limits,
		`SELECT daily_limit_minutes, session_limit_minutes FROM settings WHERE id = 1`)
	if err == nil {
		dailyGoal, sessionGoal = limits.Daily, limits.Session
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, repository.NewStorageError(op, err)
	}

	var stats statsRow
	err = tx.GetContext(ctx, &stats,
		`SELECT date, total_minutes, platform_breakdown, session_count
		 FROM daily_statistics WHERE date = ?`, date)
	if errors.Is(err, sql.ErrNoRows) {
		// No usage recorded today.
		out := &repository.UsageStats{
			DailyGoalMinutes:   dailyGoal,
			SessionGoalMinutes: sessionGoal,
			Platform:           platform,
		}
		if platform == "" {
			out.Platforms = map[string]int64{}
		}
		return out, nil
	}
	if err != nil {
		return nil, repository.NewStorageError(op, err)
	}

	breakdown := map[string]int64{}
	if stats.PlatformBreakdown != "" {
		if uerr := json.Unmarshal([]byte(stats.PlatformBreakdown), &breakdown); uerr != nil {
			return nil, repository.NewStorageError(op, uerr)
		}
	}

	currentMinutes, err := currentSessionMinutes(ctx, tx, platform, asOf)
	if err != nil {
		return nil, repository.NewStorageError(op, err)
	}

	if platform != "" {
		var opened int64
		err = tx.GetContext(ctx, &opened,
			`SELECT COUNT(*) FROM sessions WHERE platform = ? AND start_time LIKE ?`,
			platform, date+"%")
		if err != nil {
			return nil, repository.NewStorageError(op, err)
		}
		return &repository.UsageStats{
			TodayMinutes:          breakdown[platform],
			DailyGoalMinutes:      dailyGoal,
			CurrentSessionMinutes: currentMinutes,
			SessionGoalMinutes:    sessionGoal,
			TimesOpenedToday:      opened,
			Platform:              platform,
		}, nil
	}

	return &repository.UsageStats{
		TodayMinutes:          stats.TotalMinutes,
		DailyGoalMinutes:      dailyGoal,
		CurrentSessionMinutes: currentMinutes,
		SessionGoalMinutes:    sessionGoal,
		TimesOpenedToday:      stats.SessionCount,
		Platforms:             breakdown,
	}, nil
}

// currentSessionMinutes returns elapsed minutes of the relevant open session:
// the platform's own when platform is set, otherwise the most recently
// opened one regardless of platform.
func currentSessionMinutes(ctx context.Context, tx *sqlx.Tx, platform string, asOf time.Time) (int64, error) {
	var startStr string
	var err error
	if platform != "" {
		err = tx.GetContext(ctx, &startStr,
			`SELECT start_time FROM sessions WHERE platform = ? AND end_time IS NULL`, platform)
	} else {
		err = tx.GetContext(ctx, &startStr,
			`SELECT start_time FROM sessions WHERE end_time IS NULL ORDER BY start_time DESC LIMIT 1`)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	start, err := time.Parse(timeLayout, startStr)
	if err != nil {
		return 0, fmt.Errorf("bad start_time %q: %w", startStr, err)
	}
	return floorMinutes(start, asOf), nil
}

// OpenPlatform returns the platform of the most recently opened session that
// is still open.
func (r *UsageRepository) OpenPlatform(ctx context.Context) (string, error) {
	var platform string
	err := r.db.GetContext(ctx, &platform,
		`SELECT platform FROM sessions WHERE end_time IS NULL ORDER BY start_time DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", repository.NewStorageError("open platform", err)
	}
	return platform, nil
}

// Reset destroys all persisted state and reinitializes default settings.
func (r *UsageRepository) Reset(ctx context.Context) error {
	const op = "reset"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return repository.NewStorageError(op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range []string{
		`DELETE FROM sessions`,
		`DELETE FROM daily_statistics`,
		`DELETE FROM settings`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return repository.NewStorageError(op, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (id, daily_limit_minutes, session_limit_minutes, intervention_frequency, settings_json)
		 VALUES (1, ?, ?, ?, '{}')`,
		repository.DefaultDailyLimitMinutes,
		repository.DefaultSessionLimitMinutes,
		string(repository.DefaultFrequency)); err != nil {
		return repository.NewStorageError(op, err)
	}

	return repository.NewStorageError(op, tx.Commit())
}
