// Package tracker turns "platform observed" events into session state.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/screenbreak/screenbreak-backend/internal/platform"
	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

// Validation errors for malformed observation input.
var (
	ErrMissingPlatform  = errors.New("observation is missing a platform")
	ErrMissingTimestamp = errors.New("observation is missing a timestamp")
)

// DefaultStoreTimeout bounds each store operation so a stuck database
// surfaces as a StorageError instead of hanging the request.
const DefaultStoreTimeout = 5 * time.Second

// Tracker drives session lifecycle against the usage repository. Writes for
// the same platform are serialized through a per-platform lock; different
// platforms proceed concurrently. Sessions have no idle timeout: one stays
// open until a close call is issued, even if its platform is never observed
// again.
type Tracker struct {
	usage        repository.UsageRepository
	storeTimeout time.Duration
	log          *logrus.Logger
	now          func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a new tracker
func New(usage repository.UsageRepository, log *logrus.Logger) *Tracker {
	return &Tracker{
		usage:        usage,
		storeTimeout: DefaultStoreTimeout,
		log:          log,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
	}
}

// RecordObservation normalizes the raw platform label and opens or extends
// its session at observedAt.
func (t *Tracker) RecordObservation(ctx context.Context, rawPlatform string, observedAt time.Time) error {
	if rawPlatform == "" {
		return ErrMissingPlatform
	}
	if observedAt.IsZero() {
		return ErrMissingTimestamp
	}

	name := platform.Normalize(rawPlatform)

	lock := t.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	defer cancel()

	if err := t.usage.UpsertObservation(opCtx, name, observedAt); err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"platform":    name,
		"observed_at": observedAt,
	}).Debug("observation recorded")
	return nil
}

// CloseSession explicitly closes the open session for rawPlatform, if any.
func (t *Tracker) CloseSession(ctx context.Context, rawPlatform string) error {
	if rawPlatform == "" {
		return ErrMissingPlatform
	}

	name := platform.Normalize(rawPlatform)

	lock := t.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	defer cancel()

	return t.usage.CloseSession(opCtx, name, t.now())
}

// GetStats returns the usage projection for rawPlatform, or the overall view
// when rawPlatform is empty.
func (t *Tracker) GetStats(ctx context.Context, rawPlatform string) (*repository.UsageStats, error) {
	name := ""
	if rawPlatform != "" {
		name = platform.Normalize(rawPlatform)
	}

	opCtx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	defer cancel()

	return t.usage.ReadUsageStats(opCtx, name, t.now())
}

// CurrentPlatform returns the platform of the most recently opened session
// still open, or "" when nothing is open.
func (t *Tracker) CurrentPlatform(ctx context.Context) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	defer cancel()

	return t.usage.OpenPlatform(opCtx)
}

// Reset destroys all tracked state.
func (t *Tracker) Reset(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	defer cancel()

	return t.usage.Reset(opCtx)
}

func (t *Tracker) lockFor(name string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[name] = lock
	}
	return lock
}
