package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

// FSSPService combines URL building, scraping, caching and the empty-result policy
type FSSPService struct {
	config      config.FSSPConfig
	maxAttempts int
	fetcher     Fetcher
	cache       CacheServiceInterface
	metrics     MetricsRecorder
	logger      *logrus.Logger

	requestCounter int64
}

// NewFSSPService creates the search facade. cache may be nil.
func NewFSSPService(cfg config.FSSPConfig, maxAttempts int, fetcher Fetcher, cache CacheServiceInterface, metrics MetricsRecorder, logger *logrus.Logger) *FSSPService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &FSSPService{
		config:      cfg,
		maxAttempts: maxAttempts,
		fetcher:     fetcher,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// ByIP searches by enforcement proceeding number
func (s *FSSPService) ByIP(ctx context.Context, number string) (*models.SearchResult, error) {
	return s.Search(ctx, models.IPQuery{Number: number})
}

// ByPerson searches by debtor name and birth date
func (s *FSSPService) ByPerson(ctx context.Context, query models.PersonQuery) (*models.SearchResult, error) {
	return s.Search(ctx, query)
}

// ByINN searches by taxpayer number
func (s *FSSPService) ByINN(ctx context.Context, inn string) (*models.SearchResult, error) {
	return s.Search(ctx, models.INNQuery{INN: inn})
}

// Search runs one lookup for query
func (s *FSSPService) Search(ctx context.Context, query models.Query) (*models.SearchResult, error) {
	start := time.Now()
	requestID := atomic.AddInt64(&s.requestCounter, 1)

	logger := s.logger.WithFields(logrus.Fields{
		"query":      query.Kind(),
		"request_id": requestID,
	})

	// Build the search URL
	url, err := BuildURL(s.config, query)
	if err != nil {
		return nil, err
	}

	// Check cache first
	if cached, ok := s.fromCache(ctx, query, logger); ok {
		cached.Duration = time.Since(start)
		logger.WithField("duration", cached.Duration).Info("Search served from cache")
		return cached, nil
	}

	logger.Info("Starting registry search")

	// Scrape the registry
	cases, err := s.fetch(ctx, url, logger)
	if err == nil && len(cases) == 0 && s.config.EmptyResultPolicy != config.EmptyAsResult {
		err = models.Unavailable("registry returned an empty response", nil)
	}
	if err != nil {
		s.observe(query.Kind(), err, time.Since(start))
		logger.WithError(err).WithField("duration", time.Since(start)).Error("Registry search failed")
		return nil, err
	}

	result := &models.SearchResult{
		Query:     query.Kind(),
		Items:     cases,
		Count:     len(cases),
		Duration:  time.Since(start),
		QueriedAt: time.Now(),
	}

	// Empty results are never cached
	if len(cases) > 0 {
		s.toCache(ctx, query, cases, logger)
	}

	s.observe(query.Kind(), nil, result.Duration)
	logger.WithFields(logrus.Fields{
		"records":  result.Count,
		"duration": result.Duration,
	}).Info("Registry search completed")

	return result, nil
}

// fetch retries whole lookups while the failure kind is retryable
func (s *FSSPService) fetch(ctx context.Context, url string, logger *logrus.Entry) (models.CaseList, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		cases, err := s.fetcher.Fetch(ctx, url)
		if err == nil {
			return cases, nil
		}
		lastErr = err

		// a fresh session gets a fresh captcha; other kinds fail the same way again
		kind, classified := models.KindOf(err)
		if !classified || !kind.Retryable() || ctx.Err() != nil {
			break
		}
		if attempt < s.maxAttempts {
			logger.WithError(err).WithField("attempt", attempt).Warn("Captcha failed, retrying with a fresh session")
		}
	}
	return nil, lastErr
}

func (s *FSSPService) fromCache(ctx context.Context, query models.Query, logger *logrus.Entry) (*models.SearchResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, query.CacheKey())
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			logger.WithError(err).Warn("Cache read failed")
		}
		s.recordCache(false)
		return nil, false
	}

	var cases models.CaseList
	if err := json.Unmarshal([]byte(raw), &cases); err != nil {
		logger.WithError(err).Warn("Failed to unmarshal cached search result")
		s.recordCache(false)
		return nil, false
	}

	s.recordCache(true)
	return &models.SearchResult{
		Query:     query.Kind(),
		Items:     cases,
		Count:     len(cases),
		Cached:    true,
		QueriedAt: time.Now(),
	}, true
}

func (s *FSSPService) toCache(ctx context.Context, query models.Query, cases models.CaseList, logger *logrus.Entry) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(cases)
	if err != nil {
		logger.WithError(err).Warn("Failed to marshal search result")
		return
	}
	if err := s.cache.Set(ctx, query.CacheKey(), string(data)); err != nil {
		logger.WithError(err).Warn("Failed to cache search result")
	}
}

func (s *FSSPService) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
	}
}

func (s *FSSPService) observe(kind models.QueryKind, err error, d time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "internal"
		if k, ok := models.KindOf(err); ok {
			outcome = string(k)
		}
	}
	s.metrics.ObserveLookup(kind, outcome, d)
}

// Health returns service health status
func (s *FSSPService) Health() map[string]interface{} {
	return map[string]interface{}{
		"status":              "healthy",
		"requests":            atomic.LoadInt64(&s.requestCounter),
		"max_attempts":        s.maxAttempts,
		"empty_result_policy": s.config.EmptyResultPolicy,
	}
}
