package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	client, err := NewClient(srv.URL, "test-key", "test-model", log)
	require.NoError(t, err)
	return client
}

func completionWith(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]string{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
		})
	}
}

func testStats() *repository.UsageStats {
	return &repository.UsageStats{
		TodayMinutes:          45,
		DailyGoalMinutes:      60,
		CurrentSessionMinutes: 12,
		SessionGoalMinutes:    15,
		TimesOpenedToday:      4,
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "", "test-model", logrus.New())
	assert.Error(t, err)
}

func TestGenerateMessageReturnsModelOutput(t *testing.T) {
	client := newTestClient(t, completionWith("  How about a short walk instead?  "))

	msg := client.GenerateMessage(context.Background(), "TikTok", testStats())
	assert.Equal(t, "How about a short walk instead?", msg)
}

func TestGenerateMessageFallsBackOnUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "upstream unavailable"}}`, http.StatusInternalServerError)
	})

	msg := client.GenerateMessage(context.Background(), "TikTok", testStats())
	assert.Equal(t, FallbackMessage, msg)
}

func TestGenerateMessageFallsBackOnBlankContent(t *testing.T) {
	client := newTestClient(t, completionWith("   "))

	msg := client.GenerateMessage(context.Background(), "TikTok", testStats())
	assert.Equal(t, FallbackMessage, msg)
}

func TestClassifyParsesVerdict(t *testing.T) {
	client := newTestClient(t, completionWith(`{"detected": true, "platform": "TikTok", "confidence": 0.92}`))

	got, err := client.Classify(context.Background(), "For You @someone 1.2M likes")
	require.NoError(t, err)
	assert.True(t, got.Detected)
	assert.Equal(t, "TikTok", got.Platform)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
}

func TestClassifyErrorsOnUpstreamFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "upstream unavailable"}}`, http.StatusInternalServerError)
	})

	got, err := client.Classify(context.Background(), "some text")
	require.Error(t, err)
	assert.Equal(t, "none", got.Platform)
	assert.False(t, got.Detected)
}
