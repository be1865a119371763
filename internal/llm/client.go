// Package llm talks to the language-model collaborators: the platform
// classifier and the intervention message generator.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/screenbreak/screenbreak-backend/internal/repository"
)

// Classification is the platform classifier's verdict for one screen of
// OCR text.
type Classification struct {
	Detected   bool    `json:"detected"`
	Platform   string  `json:"platform"`
	Confidence float64 `json:"confidence"`
}

// Classifier detects short-form-video platforms from on-screen text.
type Classifier interface {
	Classify(ctx context.Context, ocrText string) (Classification, error)
}

// MessageGenerator produces the user-facing intervention text. It never
// fails: implementations fall back to a generic message.
type MessageGenerator interface {
	GenerateMessage(ctx context.Context, platform string, stats *repository.UsageStats) string
}

// FallbackMessage is used when message generation fails.
const FallbackMessage = "You've been scrolling for a while. Maybe take a quick break?"

// Client implements Classifier and MessageGenerator against an
// OpenAI-compatible chat completion API (Groq in production).
type Client struct {
	api     *openai.Client
	model   string
	breaker *Breaker
	log     *logrus.Logger
}

// NewClient creates a new LLM client
func NewClient(baseURL, apiKey, model string, log *logrus.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("LLM API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		breaker: NewBreaker(),
		log:     log,
	}, nil
}

// Classify asks the model whether ocrText shows a known short-form-video
// platform. Calls go through a circuit breaker; when the upstream is
// misbehaving the error surfaces immediately and the caller degrades to
// "not detected".
func (c *Client) Classify(ctx context.Context, ocrText string) (Classification, error) {
	var result Classification

	err := c.breaker.Do(func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: classifierPrompt(ocrText)},
			},
			Temperature: 0.1,
			MaxTokens:   200,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty completion response")
		}
		return json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result)
	})
	if err != nil {
		c.log.WithError(err).Warn("platform classification failed")
		return Classification{Platform: "none"}, fmt.Errorf("classify: %w", err)
	}

	return result, nil
}

// GenerateMessage produces a short intervention message for the platform and
// current usage. Falls back to a generic message on any failure.
func (c *Client) GenerateMessage(ctx context.Context, platform string, stats *repository.UsageStats) string {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: messagePrompt(platform, stats)},
		},
		Temperature: 0.7,
		MaxTokens:   100,
	})
	if err != nil || len(resp.Choices) == 0 {
		c.log.WithError(err).Warn("intervention message generation failed, using fallback")
		return FallbackMessage
	}

	message := strings.TrimSpace(resp.Choices[0].Message.Content)
	if message == "" {
		return FallbackMessage
	}
	return message
}

func classifierPrompt(ocrText string) string {
	return fmt.Sprintf(`You are an AI classifier for detecting short-form video platforms from screen content.
Analyze the given OCR text and determine if the user is currently on one of these platforms:

**SHORT-FORM VIDEO PLATFORMS:**
1. TikTok
2. Instagram Reels
3. YouTube Shorts
4. Snapchat
5. Facebook Reels

**DETECTION CRITERIA:**
- TikTok: "For You", "Following", "@username", "TikTok", video duration counter, comments/likes UI
- Instagram Reels: "Instagram", "Reels", "Instagram Reels", IG-specific UI elements, Instagram profile references
- YouTube Shorts: "Shorts", "YouTube", YouTube-specific UI elements, subscriber counts
- Snapchat: "Snapchat", Story indicators, message UI, camera interface elements, Snap-specific emojis
- Facebook Reels: "Facebook", "FB", "Facebook Reels", Facebook-specific navigation, Facebook profile references

**IMPORTANT DISTINCTIONS:**
- Instagram Reels will typically contain Instagram-specific elements like "Instagram", profile links, or IG icons
- Facebook Reels will contain Facebook-specific elements like "Facebook", FB logos, or Facebook-style notifications
- If the text contains elements from both platforms but is primarily Instagram-oriented, classify as Instagram Reels

**RESPONSE FORMAT:**
Return a JSON object with these fields:
1. "detected": true/false - whether any platform was detected
2. "platform": the platform name or "none" (use exact platform names from the list above)
3. "confidence": your confidence level (0.0-1.0)

**OCR TEXT TO ANALYZE:**
%q`, ocrText)
}

func messagePrompt(platform string, stats *repository.UsageStats) string {
	return fmt.Sprintf(`You are ScreenBreak, a digital wellbeing assistant that helps users be mindful of their
short-form video consumption. Create a friendly, non-judgmental intervention message
based on the user's current usage statistics.

**PLATFORM:** %s
**TODAY'S USAGE:** %d minutes
**DAILY GOAL:** %d minutes
**CURRENT SESSION:** %d minutes
**TIMES OPENED TODAY:** %d

Create a brief, encouraging message (max 2 sentences) that:
1. Acknowledges their current usage in a non-judgmental way
2. Gently suggests an alternative activity or reminds them of their goal
3. Uses a supportive, friendly tone

The message should be short enough to display as a notification.`,
		platform, stats.TodayMinutes, stats.DailyGoalMinutes,
		stats.CurrentSessionMinutes, stats.TimesOpenedToday)
}
