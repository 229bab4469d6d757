package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

type fakeFetcher struct {
	mu      sync.Mutex
	urls    []string
	results []fetchResult
}

type fetchResult struct {
	cases models.CaseList
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (models.CaseList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	i := len(f.urls) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].cases, f.results[i].err
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

func oneCase() models.CaseList {
	region := "Москва"
	return models.CaseList{{Region: &region, Debtor: "Иванов Иван", ProceedingNumber: "1/11/11111-ИП"}}
}

func newTestFSSPService(fetcher Fetcher, policy config.EmptyResultPolicy, attempts int, cache CacheServiceInterface) *FSSPService {
	cfg := testTemplates
	cfg.EmptyResultPolicy = policy
	return NewFSSPService(cfg, attempts, fetcher, cache, nil, testLogger())
}

func TestSearchByINN(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{cases: oneCase()}}}
	svc := newTestFSSPService(fetcher, config.EmptyAsError, 1, nil)

	result, err := svc.ByINN(context.Background(), "7707083893")
	require.NoError(t, err)
	assert.Equal(t, models.QueryByINN, result.Query)
	assert.Equal(t, 1, result.Count)
	assert.False(t, result.Cached)
	assert.Equal(t, []string{"https://fssp.test/iss/ip/?is%5Bvariant%5D=5&is%5Binn%5D=7707083893"}, fetcher.urls)
}

func TestSearchEmptyResultPolicy(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{cases: models.CaseList{}}}}

	_, err := newTestFSSPService(fetcher, config.EmptyAsError, 1, nil).ByIP(context.Background(), "1/11/11111-ИП")
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
	assert.Contains(t, err.Error(), "empty response")

	result, err := newTestFSSPService(fetcher, config.EmptyAsResult, 1, nil).ByIP(context.Background(), "1/11/11111-ИП")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.NotNil(t, result.Items)
}

func TestSearchRetriesOnlyCaptchaFailures(t *testing.T) {
	captchaErr := models.CaptchaFailure("captcha recognition failed", nil)
	fetcher := &fakeFetcher{results: []fetchResult{{err: captchaErr}, {err: captchaErr}, {cases: oneCase()}}}

	result, err := newTestFSSPService(fetcher, config.EmptyAsError, 3, nil).ByINN(context.Background(), "7707083893")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 3, fetcher.calls())

	fetcher = &fakeFetcher{results: []fetchResult{{err: captchaErr}, {cases: oneCase()}}}
	_, err = newTestFSSPService(fetcher, config.EmptyAsError, 1, nil).ByINN(context.Background(), "7707083893")
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.Equal(t, 1, fetcher.calls(), "a single attempt by default")

	for _, kind := range []models.ErrorKind{models.KindCaptchaAttemptsExceeded, models.KindUpstreamUnavailable, models.KindResultParsingFailure} {
		fetcher = &fakeFetcher{results: []fetchResult{{err: models.NewLookupError(kind, "x", nil)}, {cases: oneCase()}}}
		_, err = newTestFSSPService(fetcher, config.EmptyAsError, 3, nil).ByINN(context.Background(), "7707083893")
		assert.True(t, models.IsKind(err, kind))
		assert.Equal(t, 1, fetcher.calls(), string(kind))
	}

	fetcher = &fakeFetcher{results: []fetchResult{{err: errors.New("browser crashed")}, {cases: oneCase()}}}
	_, err = newTestFSSPService(fetcher, config.EmptyAsError, 3, nil).ByINN(context.Background(), "7707083893")
	assert.EqualError(t, err, "browser crashed")
	assert.Equal(t, 1, fetcher.calls(), "unclassified failures are not retried")
}

func TestSearchUsesCache(t *testing.T) {
	cache := NewCacheService(nil, time.Minute, testLogger())
	fetcher := &fakeFetcher{results: []fetchResult{{cases: oneCase()}}}
	svc := newTestFSSPService(fetcher, config.EmptyAsError, 1, cache)
	query := models.PersonQuery{LastName: "Иванов", FirstName: "Иван", Birthday: "01.01.1980"}

	first, err := svc.ByPerson(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.ByPerson(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "Москва", second.Items[0].RegionName())
	assert.Equal(t, 1, fetcher.calls())
}

func TestSearchDoesNotCacheEmptyResults(t *testing.T) {
	cache := NewCacheService(nil, time.Minute, testLogger())
	fetcher := &fakeFetcher{results: []fetchResult{{cases: models.CaseList{}}}}
	svc := newTestFSSPService(fetcher, config.EmptyAsResult, 1, cache)

	_, err := svc.ByINN(context.Background(), "7707083893")
	require.NoError(t, err)
	_, err = svc.ByINN(context.Background(), "7707083893")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls())
}

func TestSearchRecordsMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	fetcher := &fakeFetcher{results: []fetchResult{{err: models.Unavailable("down", errors.New("503"))}}}
	svc := NewFSSPService(testTemplates, 1, fetcher, nil, metrics, testLogger())

	_, err := svc.ByINN(context.Background(), "7707083893")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LookupOutcome.WithLabelValues("inn", "upstream_unavailable")))
	assert.Equal(t, int64(1), svc.Health()["requests"])
}
