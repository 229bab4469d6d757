package services

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

// fakeSession records calls and lets each test script failures
type fakeSession struct {
	mu    sync.Mutex
	calls []string

	status        int
	navigateErr   error
	blockCaptcha  bool
	captchaErr    error
	blockResults  bool
	html          string
	pageShotErr   error
	panicOnSubmit bool

	captchaPaths []string
	pageShots    []string
	filled       string
	closed       int
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSession) Navigate(ctx context.Context, url string) (int, error) {
	f.record("navigate")
	return f.status, f.navigateErr
}

func (f *fakeSession) WaitFor(ctx context.Context, selector string) error {
	f.record("wait:" + selector)
	block := f.blockResults
	if selector == testBrowserConfig().Selectors.CaptchaImage {
		if f.captchaErr != nil {
			return f.captchaErr
		}
		block = f.blockCaptcha
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSession) Evaluate(ctx context.Context, script string) error {
	f.record("evaluate")
	return nil
}

func (f *fakeSession) ScreenshotElement(ctx context.Context, selector, path string) error {
	f.record("screenshot_element")
	f.mu.Lock()
	f.captchaPaths = append(f.captchaPaths, path)
	f.mu.Unlock()
	return os.WriteFile(path, pngBytes, 0o600)
}

func (f *fakeSession) ScreenshotPage(ctx context.Context, path string) error {
	f.record("screenshot_page")
	f.mu.Lock()
	f.pageShots = append(f.pageShots, path)
	f.mu.Unlock()
	return f.pageShotErr
}

func (f *fakeSession) Fill(ctx context.Context, selector, value string) error {
	f.record("fill")
	f.filled = value
	return nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	f.record("click")
	if f.panicOnSubmit {
		panic("node detached")
	}
	return nil
}

func (f *fakeSession) InnerHTML(ctx context.Context, selector string) (string, error) {
	f.record("inner_html")
	return f.html, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSession) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

type fakeBrowser struct {
	sessions []*fakeSession
	next     func() *fakeSession
	err      error
	mu       sync.Mutex
}

func (b *fakeBrowser) NewSession(ctx context.Context) (BrowserSession, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.next()
	b.sessions = append(b.sessions, s)
	return s, nil
}

func (b *fakeBrowser) GetStats() map[string]interface{} { return nil }
func (b *fakeBrowser) Health() map[string]interface{}   { return map[string]interface{}{"status": "healthy"} }
func (b *fakeBrowser) Close() error                     { return nil }

type fakeSolver struct {
	code       string
	err        error
	mu         sync.Mutex
	paths      []string
	sawImage   bool
	solveDelay time.Duration
}

func (s *fakeSolver) Solve(ctx context.Context, imagePath string) (string, error) {
	s.mu.Lock()
	s.paths = append(s.paths, imagePath)
	if _, err := os.Stat(imagePath); err == nil {
		s.sawImage = true
	}
	s.mu.Unlock()
	if s.solveDelay > 0 {
		time.Sleep(s.solveDelay)
	}
	return s.code, s.err
}

func (s *fakeSolver) Health() map[string]interface{} { return map[string]interface{}{"status": "healthy"} }

func testBrowserConfig() config.BrowserConfig {
	return config.BrowserConfig{
		NavigationTimeout: time.Second,
		CaptchaTimeout:    50 * time.Millisecond,
		ResultsTimeout:    50 * time.Millisecond,
		Selectors: config.Selectors{
			CaptchaImage: "img#capchaVisualImage",
			CaptchaInput: "#captcha-popup-code",
			Submit:       "//button[normalize-space()='Отправить']",
			Results:      ".results",
			Empty:        ".results .empty",
		},
	}
}

func newTestScraper(t *testing.T, session *fakeSession, solver *fakeSolver) (*Scraper, *fakeBrowser) {
	t.Helper()
	cfg := testBrowserConfig()
	cfg.TempDir = t.TempDir()
	browser := &fakeBrowser{next: func() *fakeSession { return session }}
	return NewScraper(cfg, browser, solver, NewParserService(testLogger()), testLogger()), browser
}

func TestFetchSuccess(t *testing.T) {
	session := &fakeSession{status: 200, html: regionFragment}
	solver := &fakeSolver{code: " 4821 "}
	scraper, _ := newTestScraper(t, session, solver)

	cases, err := scraper.Fetch(context.Background(), "https://fssp.test/iss/ip")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "Краснодарский край", cases[0].RegionName())

	assert.Equal(t, []string{
		"navigate",
		"wait:img#capchaVisualImage",
		"evaluate",
		"screenshot_element",
		"fill",
		"click",
		"wait:.results, .results .empty",
		"inner_html",
	}, session.calls)
	assert.Equal(t, "4821", session.filled)
	assert.Equal(t, 1, session.closed)
	assert.True(t, solver.sawImage)

	_, statErr := os.Stat(solver.paths[0])
	assert.ErrorIs(t, statErr, os.ErrNotExist, "captcha image must be removed after solving")
	assert.Empty(t, session.pageShots, "step screenshots are disabled")
}

func TestFetchStepScreenshots(t *testing.T) {
	session := &fakeSession{status: 200, html: regionFragment}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})
	scraper.config.Screenshots = true

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	require.NoError(t, err)
	assert.Len(t, session.pageShots, 3)
}

func TestFetchCaptchaWaitTimeout(t *testing.T) {
	session := &fakeSession{status: 200, blockCaptcha: true}
	solver := &fakeSolver{code: "1"}
	scraper, _ := newTestScraper(t, session, solver)

	cases, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.Nil(t, cases)
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
	assert.Contains(t, err.Error(), "timeout")
	assert.Equal(t, 1, session.closed)
	assert.Empty(t, solver.paths)
	assert.Len(t, session.pageShots, 1, "failure screenshot")
}

func TestFetchCaptchaElementMissing(t *testing.T) {
	session := &fakeSession{status: 200, captchaErr: errors.New("could not find node")}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.Equal(t, 1, session.closed)
}

func TestFetchEmptyCodeStopsBeforeSubmit(t *testing.T) {
	session := &fakeSession{status: 200}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "  "})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.False(t, session.called("fill"))
	assert.False(t, session.called("click"))
	assert.Equal(t, 1, session.closed)
}

func TestFetchSolverErrors(t *testing.T) {
	session := &fakeSession{status: 200}
	scraper, _ := newTestScraper(t, session, &fakeSolver{err: errors.New("ERROR_ZERO_BALANCE")})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.Contains(t, err.Error(), "ERROR_ZERO_BALANCE")

	classified := models.CaptchaFailure("captcha upload failed", errors.New("boom"))
	session = &fakeSession{status: 200}
	scraper, _ = newTestScraper(t, session, &fakeSolver{err: classified})

	_, err = scraper.Fetch(context.Background(), "https://fssp.test")
	var lookupErr *models.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Same(t, classified, lookupErr)
}

func TestFetchBadStatus(t *testing.T) {
	for _, status := range []int{0, 403, 503} {
		session := &fakeSession{status: status}
		scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})

		_, err := scraper.Fetch(context.Background(), "https://fssp.test")
		assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable), "status %d", status)
		assert.False(t, session.called("wait:img#capchaVisualImage"))
		assert.Equal(t, 1, session.closed)
	}
}

func TestFetchNavigationError(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	session := &fakeSession{navigateErr: cause}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
	assert.ErrorIs(t, err, cause)
}

func TestFetchResultsTimeout(t *testing.T) {
	session := &fakeSession{status: 200, blockResults: true}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
	assert.Contains(t, err.Error(), "timeout while waiting for results")
	assert.Equal(t, 1, session.closed)
}

func TestFetchPropagatesAttemptsExceeded(t *testing.T) {
	session := &fakeSession{
		status: 200,
		html:   `<div class="empty">` + AttemptsExceededPhrase + `</div>`,
	}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindCaptchaAttemptsExceeded))
}

func TestFetchRecoversFromPanic(t *testing.T) {
	session := &fakeSession{status: 200, panicOnSubmit: true}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
	assert.Contains(t, err.Error(), "node detached")
	assert.Equal(t, 1, session.closed)
}

func TestFetchDiagnosticFailureDoesNotMaskError(t *testing.T) {
	session := &fakeSession{status: 500, pageShotErr: errors.New("target closed")}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.Contains(t, err.Error(), "status 500")
	assert.NotContains(t, err.Error(), "target closed")
}

func TestFetchSessionStartFailure(t *testing.T) {
	cfg := testBrowserConfig()
	cfg.TempDir = t.TempDir()
	browser := &fakeBrowser{err: errors.New("chrome not found")}
	scraper := NewScraper(cfg, browser, &fakeSolver{code: "1"}, NewParserService(testLogger()), testLogger())

	_, err := scraper.Fetch(context.Background(), "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
}

func TestFetchCallerCancellationClosesSession(t *testing.T) {
	session := &fakeSession{status: 200, blockCaptcha: true}
	scraper, _ := newTestScraper(t, session, &fakeSolver{code: "1"})
	scraper.config.CaptchaTimeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := scraper.Fetch(ctx, "https://fssp.test")
	assert.True(t, models.IsKind(err, models.KindUpstreamUnavailable))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, session.closed)
}

func TestFetchScopesCaptchaFilePerLookup(t *testing.T) {
	cfg := testBrowserConfig()
	cfg.TempDir = t.TempDir()
	browser := &fakeBrowser{next: func() *fakeSession { return &fakeSession{status: 200, html: regionFragment} }}
	solver := &fakeSolver{code: "1", solveDelay: 10 * time.Millisecond}
	scraper := NewScraper(cfg, browser, solver, NewParserService(testLogger()), testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := scraper.Fetch(context.Background(), "https://fssp.test")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range solver.paths {
		seen[p] = true
	}
	assert.Len(t, seen, 4)
	for _, s := range browser.sessions {
		assert.Equal(t, 1, s.closed)
	}
}
