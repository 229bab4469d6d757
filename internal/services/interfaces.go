package services

import (
	"context"
	"time"

	"github.com/nexconsult/fssp-api/internal/models"
)

// FSSPServiceInterface defines the search facade used by the API and CLI
type FSSPServiceInterface interface {
	// Search runs one lookup for any query variant
	Search(ctx context.Context, query models.Query) (*models.SearchResult, error)

	// ByIP searches by enforcement proceeding number
	ByIP(ctx context.Context, number string) (*models.SearchResult, error)

	// ByPerson searches by debtor name and birth date
	ByPerson(ctx context.Context, query models.PersonQuery) (*models.SearchResult, error)

	// ByINN searches by taxpayer number
	ByINN(ctx context.Context, inn string) (*models.SearchResult, error)

	// Health returns service health status
	Health() map[string]interface{}
}

// Fetcher runs one end-to-end scrape of a search URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (models.CaseList, error)
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	// Get retrieves a value from cache, returning ErrCacheMiss when absent
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value string) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear clears all cache entries
	Clear(ctx context.Context) error

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache service health status
	Health() map[string]interface{}
}

// BrowserServiceInterface opens isolated browser sessions
type BrowserServiceInterface interface {
	// NewSession starts a fresh browser context and page.
	// The caller owns the session and must Close it.
	NewSession(ctx context.Context) (BrowserSession, error)

	// GetStats returns session statistics
	GetStats() map[string]interface{}

	// Health returns browser service health status
	Health() map[string]interface{}

	// Close rejects new sessions
	Close() error
}

// BrowserSession is one page of one isolated browser context.
// Every method honours ctx cancellation and deadline.
type BrowserSession interface {
	// Navigate loads url and returns the HTTP status of the main document.
	// A zero status means no response was received.
	Navigate(ctx context.Context, url string) (int, error)

	// WaitFor blocks until selector matches a visible element
	WaitFor(ctx context.Context, selector string) error

	// Evaluate runs a script in the page
	Evaluate(ctx context.Context, script string) error

	// ScreenshotElement writes a PNG of the first element matching selector to path
	ScreenshotElement(ctx context.Context, selector, path string) error

	// ScreenshotPage writes a full page PNG to path
	ScreenshotPage(ctx context.Context, path string) error

	// Fill replaces the value of an input
	Fill(ctx context.Context, selector, value string) error

	// Click clicks the first element matching selector
	Click(ctx context.Context, selector string) error

	// InnerHTML returns the inner markup of the first element matching selector
	InnerHTML(ctx context.Context, selector string) (string, error)

	// Close tears down page, context and browser. Safe to call twice.
	Close() error
}

// CaptchaServiceInterface recognises numeric image captchas
type CaptchaServiceInterface interface {
	// Solve returns the code shown on the image stored at imagePath
	Solve(ctx context.Context, imagePath string) (string, error)

	// Health returns captcha service health status
	Health() map[string]interface{}
}

// ParserServiceInterface extracts case records from results markup
type ParserServiceInterface interface {
	Parse(html string) (models.CaseList, error)
}

// MetricsRecorder receives lookup telemetry. A nil *Metrics is valid.
type MetricsRecorder interface {
	ObserveLookup(kind models.QueryKind, outcome string, duration time.Duration)
	ObserveCaptcha(success bool, duration time.Duration)
	ObserveCache(hit bool)
	SessionOpened()
	SessionClosed()
}
