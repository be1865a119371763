// Package services wires the core components together for the API layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/screenbreak/screenbreak-backend/internal/intervention"
	"github.com/screenbreak/screenbreak-backend/internal/llm"
	"github.com/screenbreak/screenbreak-backend/internal/repository"
	"github.com/screenbreak/screenbreak-backend/internal/tracker"
)

// ErrValidation marks malformed user input; handlers map it to 400.
var ErrValidation = errors.New("invalid input")

// Services holds all service instances
type Services struct {
	Tracker    *tracker.Tracker
	Settings   repository.SettingsRepository
	Classifier llm.Classifier
	Messages   llm.MessageGenerator
	Log        *logrus.Logger
}

// NewServices creates all service instances
func NewServices(
	trk *tracker.Tracker,
	settings repository.SettingsRepository,
	classifier llm.Classifier,
	messages llm.MessageGenerator,
	log *logrus.Logger,
) *Services {
	return &Services{
		Tracker:    trk,
		Settings:   settings,
		Classifier: classifier,
		Messages:   messages,
		Log:        log,
	}
}

// InterventionData is the payload handed to the client when an intervention
// fires.
type InterventionData struct {
	Type       intervention.Presentation `json:"type"`
	Message    string                    `json:"message"`
	Reason     intervention.Reason       `json:"reason"`
	UsageStats *repository.UsageStats    `json:"usage_stats"`
}

// ProcessResult is the outcome of one processed screen capture.
type ProcessResult struct {
	PlatformDetected bool
	Platform         string
	Confidence       float64
	Intervention     *InterventionData
}

// ProcessScreen classifies the OCR text and, when a platform is detected,
// records the observation and decides whether to intervene. Classifier and
// message-generator failures degrade gracefully and never fail the flow.
func (s *Services) ProcessScreen(ctx context.Context, ocrText string, observedAt time.Time) (*ProcessResult, error) {
	result, err := s.Classifier.Classify(ctx, ocrText)
	if err != nil {
		// Classification failure means "not detected", not a request error.
		return &ProcessResult{Platform: "none"}, nil
	}

	s.Log.WithFields(logrus.Fields{
		"detected":   result.Detected,
		"platform":   result.Platform,
		"confidence": result.Confidence,
	}).Info("platform detection result")

	out := &ProcessResult{
		PlatformDetected: result.Detected,
		Platform:         result.Platform,
		Confidence:       result.Confidence,
	}
	if !result.Detected || result.Platform == "none" {
		return out, nil
	}

	if err := s.Tracker.RecordObservation(ctx, result.Platform, observedAt); err != nil {
		return nil, err
	}

	data, err := s.decide(ctx, result.Platform)
	if err != nil {
		return nil, err
	}
	out.Intervention = data
	return out, nil
}

// DecideIntervention evaluates the policy for rawPlatform; with an empty
// platform it uses the most recently opened session still open.
func (s *Services) DecideIntervention(ctx context.Context, rawPlatform string) (*InterventionData, error) {
	name := rawPlatform
	if name == "" {
		open, err := s.Tracker.CurrentPlatform(ctx)
		if err != nil {
			return nil, err
		}
		if open == "" {
			return nil, nil
		}
		name = open
	}
	return s.decide(ctx, name)
}

// decide runs stats → policy → message generation. Returns nil when no
// intervention is warranted.
func (s *Services) decide(ctx context.Context, platform string) (*InterventionData, error) {
	stats, err := s.Tracker.GetStats(ctx, platform)
	if err != nil {
		return nil, err
	}

	settings, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	needed, reason := intervention.Evaluate(stats, settings)
	if !needed {
		return nil, nil
	}

	s.Log.WithField("reason", reason).Info("intervention triggered")

	// Message generation happens after all store work; its latency never
	// holds a platform lock.
	return &InterventionData{
		Type:       intervention.PresentationFor(stats),
		Message:    s.Messages.GenerateMessage(ctx, platform, stats),
		Reason:     reason,
		UsageStats: stats,
	}, nil
}

// GetStats returns the usage projection, overall when rawPlatform is empty.
func (s *Services) GetStats(ctx context.Context, rawPlatform string) (*repository.UsageStats, error) {
	return s.Tracker.GetStats(ctx, rawPlatform)
}

// UpdateSettings validates and merges a partial settings payload.
func (s *Services) UpdateSettings(ctx context.Context, patch map[string]interface{}) error {
	if len(patch) == 0 {
		return fmt.Errorf("%w: empty settings payload", ErrValidation)
	}

	for _, key := range []string{"daily_limit_minutes", "session_limit_minutes"} {
		if raw, ok := patch[key]; ok {
			v, ok := raw.(float64)
			if !ok || v != float64(int(v)) || int(v) <= 0 {
				return fmt.Errorf("%w: %s must be a positive integer", ErrValidation, key)
			}
		}
	}
	if raw, ok := patch["intervention_frequency"]; ok {
		v, isString := raw.(string)
		if !isString || !repository.Frequency(v).Valid() {
			return fmt.Errorf("%w: intervention_frequency must be low, medium or high", ErrValidation)
		}
	}

	return s.Settings.Update(ctx, patch)
}

// ResetAll destroys all persisted state and restores default settings.
func (s *Services) ResetAll(ctx context.Context) error {
	s.Log.Warn("resetting all usage data and settings")
	return s.Tracker.Reset(ctx)
}
