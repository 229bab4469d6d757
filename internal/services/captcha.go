package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

const captchaNotReady = "CAPCHA_NOT_READY"

// ErrMissingAPIKey is returned when the captcha service is built without a key
var ErrMissingAPIKey = errors.New("captcha service API key is required")

// CaptchaService solves numeric image captchas through a 2captcha-compatible API
type CaptchaService struct {
	client       *resty.Client
	apiKey       string
	limiter      *rate.Limiter
	pollInterval time.Duration
	timeout      time.Duration
	logger       *logrus.Logger
	metrics      MetricsRecorder

	mu    sync.RWMutex
	stats CaptchaStats
}

// CaptchaStats holds solver counters
type CaptchaStats struct {
	TotalRequests   int64         `json:"total_requests"`
	SuccessRequests int64         `json:"success_requests"`
	FailedRequests  int64         `json:"failed_requests"`
	LastDuration    time.Duration `json:"last_duration"`
	LastRequest     time.Time     `json:"last_request"`
}

type captchaResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
	Error   string `json:"error_text,omitempty"`
}

// NewCaptchaService creates a captcha solver. It fails fast without an API key.
func NewCaptchaService(cfg config.CaptchaConfig, logger *logrus.Logger, metrics MetricsRecorder) (*CaptchaService, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(30 * time.Second)

	return &CaptchaService{
		client:       client,
		apiKey:       cfg.APIKey,
		limiter:      rate.NewLimiter(limit, 1),
		pollInterval: pollInterval,
		timeout:      cfg.Timeout,
		logger:       logger,
		metrics:      metrics,
	}, nil
}

// Solve uploads the image at imagePath and waits for the recognised code.
// It makes a single attempt; retries belong to the caller.
func (s *CaptchaService) Solve(ctx context.Context, imagePath string) (code string, err error) {
	start := time.Now()

	s.mu.Lock()
	s.stats.TotalRequests++
	s.stats.LastRequest = start
	s.mu.Unlock()

	defer func() {
		elapsed := time.Since(start)
		s.mu.Lock()
		s.stats.LastDuration = elapsed
		if err != nil {
			s.stats.FailedRequests++
		} else {
			s.stats.SuccessRequests++
		}
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.ObserveCaptcha(err == nil, elapsed)
		}
	}()

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return "", models.CaptchaFailure("cannot read captcha image", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	captchaID, err := s.submit(ctx, image)
	if err != nil {
		return "", models.CaptchaFailure("captcha upload failed", err)
	}

	s.logger.WithField("captcha_id", captchaID).Debug("Captcha submitted")

	code, err = s.waitForSolution(ctx, captchaID)
	if err != nil {
		return "", models.CaptchaFailure("captcha recognition failed", err)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return "", models.CaptchaFailure("captcha service returned an empty code", nil)
	}

	s.logger.WithFields(logrus.Fields{
		"captcha_id": captchaID,
		"duration":   time.Since(start),
	}).Info("Captcha solved")

	return code, nil
}

func (s *CaptchaService) submit(ctx context.Context, image []byte) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"key":     s.apiKey,
			"method":  "base64",
			"body":    base64.StdEncoding.EncodeToString(image),
			"numeric": "1",
			"json":    "1",
		}).
		Post("/in.php")
	if err != nil {
		return "", err
	}

	result, err := decodeCaptchaResponse(resp)
	if err != nil {
		return "", err
	}
	if result.Status != 1 {
		return "", fmt.Errorf("API error: %s", result.describe())
	}

	return result.Request, nil
}

func (s *CaptchaService) waitForSolution(ctx context.Context, captchaID string) (string, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for captcha %s: %w", captchaID, ctx.Err())

		case <-ticker.C:
			code, ready, err := s.checkSolution(ctx, captchaID)
			if err != nil {
				return "", err
			}
			if ready {
				return code, nil
			}
		}
	}
}

func (s *CaptchaService) checkSolution(ctx context.Context, captchaID string) (string, bool, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", false, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":    s.apiKey,
			"action": "get",
			"id":     captchaID,
			"json":   "1",
		}).
		Get("/res.php")
	if err != nil {
		return "", false, err
	}

	result, err := decodeCaptchaResponse(resp)
	if err != nil {
		return "", false, err
	}

	switch {
	case result.Status == 1:
		return result.Request, true, nil
	case result.Request == captchaNotReady:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("API error: %s", result.describe())
	}
}

func decodeCaptchaResponse(resp *resty.Response) (*captchaResponse, error) {
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode())
	}
	var result captchaResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (r *captchaResponse) describe() string {
	if r.Error != "" {
		return r.Request + " (" + r.Error + ")"
	}
	return r.Request
}

// GetStats returns a copy of the solver counters
func (s *CaptchaService) GetStats() CaptchaStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Health reports degraded when most recent solves failed
func (s *CaptchaService) Health() map[string]interface{} {
	stats := s.GetStats()

	status := "healthy"
	if stats.TotalRequests > 0 && stats.SuccessRequests*2 < stats.TotalRequests {
		status = "degraded"
	}

	return map[string]interface{}{
		"status": status,
		"stats":  stats,
	}
}
