package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ScannerClient talks to the external plagiarism-scanning service. One
// Scan call runs the whole vendor job lifecycle: authenticate, submit the
// text, poll the job status on a fixed interval, then fetch the matched
// percentage. There are no automatic retries; every vendor failure is
// returned to the caller as-is.
type ScannerClient interface {
	Scan(ctx context.Context, text string) (float64, error)
}

var (
	ErrAuthFailed = errors.New("scanner authentication failed")
	ErrScanFailed = errors.New("scan reported failure status")
)

type ScannerConfig struct {
	Email        string
	APIKey       string
	IDBaseURL    string
	APIBaseURL   string
	PollInterval time.Duration
	Sandbox      bool
}

type scannerClient struct {
	config ScannerConfig
	client *http.Client
	logger zerolog.Logger
}

func NewScannerClient(config ScannerConfig, logger zerolog.Logger) ScannerClient {
	return &scannerClient{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type statusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

type resultResponse struct {
	Results struct {
		Score struct {
			AggregatedScore float64 `json:"aggregatedScore"`
		} `json:"score"`
	} `json:"results"`
}

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

func (c *scannerClient) Scan(ctx context.Context, text string) (float64, error) {
	token, err := c.login(ctx)
	if err != nil {
		return 0, err
	}

	scanID := uuid.New().String()
	if err := c.submit(ctx, token, scanID, text); err != nil {
		return 0, err
	}

	c.logger.Info().
		Str("scan_id", scanID).
		Int("text_length", len(text)).
		Msg("Scan submitted, polling for completion")

	if err := c.waitForCompletion(ctx, token, scanID); err != nil {
		return 0, err
	}

	return c.fetchScore(ctx, token, scanID)
}

func (c *scannerClient) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":  c.config.Email,
		"apiKey": c.config.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login request: %w", err)
	}

	url := c.config.IDBaseURL + "/v3/account/login/api"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrAuthFailed, resp.StatusCode, string(respBody))
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if login.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}

	return login.AccessToken, nil
}

func (c *scannerClient) submit(ctx context.Context, token, scanID, text string) error {
	body, err := json.Marshal(map[string]interface{}{
		"base64":   base64.StdEncoding.EncodeToString([]byte(text)),
		"filename": "submission.txt",
		"properties": map[string]interface{}{
			"sandbox": c.config.Sandbox,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal submit request: %w", err)
	}

	url := fmt.Sprintf("%s/v3/scans/submit/file/%s", c.config.APIBaseURL, scanID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("scan submission rejected: status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// waitForCompletion polls the job status on the configured interval until
// the vendor reports a terminal state or ctx is cancelled.
func (c *scannerClient) waitForCompletion(ctx context.Context, token, scanID string) error {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("scan %s not finished: %w", scanID, ctx.Err())
		case <-ticker.C:
			status, err := c.status(ctx, token, scanID)
			if err != nil {
				return err
			}

			switch status.Status {
			case statusCompleted:
				return nil
			case statusFailed:
				return fmt.Errorf("%w: scan %s", ErrScanFailed, scanID)
			default:
				c.logger.Debug().
					Str("scan_id", scanID).
					Str("status", status.Status).
					Int("progress", status.Progress).
					Msg("Scan still in progress")
			}
		}
	}
}

func (c *scannerClient) status(ctx context.Context, token, scanID string) (*statusResponse, error) {
	url := fmt.Sprintf("%s/v3/scans/%s/status", c.config.APIBaseURL, scanID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status poll failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &status, nil
}

func (c *scannerClient) fetchScore(ctx context.Context, token, scanID string) (float64, error) {
	url := fmt.Sprintf("%s/v3/downloads/%s/result.json", c.config.APIBaseURL, scanID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create result request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("result request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("result fetch failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	var result resultResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode result response: %w", err)
	}

	score := result.Results.Score.AggregatedScore
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("scanner returned a non-percentage score: %v", score)
	}

	c.logger.Info().
		Str("scan_id", scanID).
		Float64("score", score).
		Msg("Scan completed")

	return score, nil
}
