// Command capture polls a ScreenPipe-compatible OCR service and forwards
// captures to the ScreenBreak backend, surfacing any intervention the
// backend decides on as a desktop notification.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const maxRetries = 3

type captureClient struct {
	screenpipeURL string
	backendURL    string
	interval      time.Duration
	http          *http.Client
	log           *logrus.Logger
}

type processResponse struct {
	InterventionRequired bool `json:"intervention_required"`
	InterventionData     struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"intervention_data"`
}

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	client := &captureClient{
		screenpipeURL: envOr("SCREENPIPE_URL", "http://localhost:3030"),
		backendURL:    envOr("BACKEND_URL", "http://localhost:8000"),
		interval:      time.Duration(envInt("CHECK_INTERVAL", 15)) * time.Second,
		http:          &http.Client{Timeout: 20 * time.Second},
		log:           log,
	}

	log.WithFields(logrus.Fields{
		"screenpipe": client.screenpipeURL,
		"backend":    client.backendURL,
		"interval":   client.interval,
	}).Info("starting ScreenBreak capture client")

	for {
		client.runOnce()
		time.Sleep(client.interval)
	}
}

func (c *captureClient) runOnce() {
	payload, err := c.fetchOCR()
	if err != nil {
		c.log.WithError(err).Warn("skipping cycle, no OCR data")
		return
	}

	resp, err := c.postCapture(payload)
	if err != nil {
		c.log.WithError(err).Error("failed to post capture to backend")
		return
	}

	if resp.InterventionRequired {
		c.deliver(resp)
	}
}

// fetchOCR grabs the latest OCR frame, retrying on timeouts.
func (c *captureClient) fetchOCR() (map[string]interface{}, error) {
	url := c.screenpipeURL + "/search?limit=1&offset=0&content_type=ocr"

	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := c.http.Get(url)
		if err != nil {
			if isTimeout(err) && attempt < maxRetries {
				c.log.WithField("attempt", attempt).Warn("OCR request timed out, retrying")
				continue
			}
			return nil, fmt.Errorf("fetching OCR data: %w", err)
		}

		if resp.StatusCode >= 400 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("screenpipe returned %s", resp.Status)
		}

		var payload map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding OCR response: %w", err)
		}

		data, ok := payload["data"].([]interface{})
		if !ok || len(data) == 0 {
			return nil, errors.New("no OCR data found")
		}

		payload["timestamp"] = time.Now().Format(time.RFC3339)
		return payload, nil
	}

	return nil, errors.New("max retries reached")
}

func (c *captureClient) postCapture(payload map[string]interface{}) (*processResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Post(c.backendURL+"/api/v1/screen/process", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("backend returned %s", resp.Status)
	}

	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// deliver surfaces an intervention. Overlays map to an alert, everything
// else to a regular notification.
func (c *captureClient) deliver(resp *processResponse) {
	c.log.WithFields(logrus.Fields{
		"type":   resp.InterventionData.Type,
		"reason": resp.InterventionData.Reason,
	}).Info("intervention required")

	var err error
	if resp.InterventionData.Type == "overlay" {
		err = beeep.Alert("ScreenBreak", resp.InterventionData.Message, "")
	} else {
		err = beeep.Notify("ScreenBreak", resp.InterventionData.Message, "")
	}
	if err != nil {
		c.log.WithError(err).Warn("failed to deliver notification")
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
