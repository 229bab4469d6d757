package services

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/fssp-api/internal/config"
	"github.com/nexconsult/fssp-api/internal/models"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image")

func writeCaptchaImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "captcha.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o600))
	return path
}

func newTestCaptchaService(t *testing.T, baseURL string) *CaptchaService {
	t.Helper()
	svc, err := NewCaptchaService(config.CaptchaConfig{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		PollInterval: 10 * time.Millisecond,
		Timeout:      2 * time.Second,
	}, testLogger(), nil)
	require.NoError(t, err)
	return svc
}

func TestNewCaptchaServiceRequiresKey(t *testing.T) {
	svc, err := NewCaptchaService(config.CaptchaConfig{APIKey: "  "}, testLogger(), nil)
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestCaptchaSolve(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/in.php":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "test-key", r.PostForm.Get("key"))
			assert.Equal(t, "base64", r.PostForm.Get("method"))
			assert.Equal(t, "1", r.PostForm.Get("numeric"))
			assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), r.PostForm.Get("body"))
			_, _ = w.Write([]byte(`{"status":1,"request":"4242"}`))
		case "/res.php":
			assert.Equal(t, "4242", r.URL.Query().Get("id"))
			assert.Equal(t, "get", r.URL.Query().Get("action"))
			if atomic.AddInt32(&polls, 1) < 3 {
				_, _ = w.Write([]byte(`{"status":0,"request":"CAPCHA_NOT_READY"}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":1,"request":" 58213 "}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	svc := newTestCaptchaService(t, server.URL)
	code, err := svc.Solve(context.Background(), writeCaptchaImage(t))
	require.NoError(t, err)
	assert.Equal(t, "58213", code)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))

	stats := svc.GetStats()
	assert.Equal(t, int64(1), stats.SuccessRequests)
	assert.Equal(t, "healthy", svc.Health()["status"])
}

func TestCaptchaSolveEmptyCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/in.php" {
			_, _ = w.Write([]byte(`{"status":1,"request":"1"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":1,"request":"   "}`))
	}))
	defer server.Close()

	_, err := newTestCaptchaService(t, server.URL).Solve(context.Background(), writeCaptchaImage(t))
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.Contains(t, err.Error(), "empty code")
}

func TestCaptchaSolveUploadRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":0,"request":"ERROR_ZERO_BALANCE"}`))
	}))
	defer server.Close()

	svc := newTestCaptchaService(t, server.URL)
	_, err := svc.Solve(context.Background(), writeCaptchaImage(t))
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.Contains(t, err.Error(), "ERROR_ZERO_BALANCE")
	assert.Equal(t, int64(1), svc.GetStats().FailedRequests)
	assert.Equal(t, "degraded", svc.Health()["status"])
}

func TestCaptchaSolveUnsolvable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/in.php" {
			_, _ = w.Write([]byte(`{"status":1,"request":"7"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":0,"request":"ERROR_CAPTCHA_UNSOLVABLE"}`))
	}))
	defer server.Close()

	_, err := newTestCaptchaService(t, server.URL).Solve(context.Background(), writeCaptchaImage(t))
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.Contains(t, err.Error(), "ERROR_CAPTCHA_UNSOLVABLE")
}

func TestCaptchaSolveTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/in.php" {
			_, _ = w.Write([]byte(`{"status":1,"request":"9"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":0,"request":"CAPCHA_NOT_READY"}`))
	}))
	defer server.Close()

	svc, err := NewCaptchaService(config.CaptchaConfig{
		APIKey:       "k",
		BaseURL:      server.URL,
		PollInterval: 10 * time.Millisecond,
		Timeout:      80 * time.Millisecond,
	}, testLogger(), nil)
	require.NoError(t, err)

	_, err = svc.Solve(context.Background(), writeCaptchaImage(t))
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCaptchaSolveMissingImage(t *testing.T) {
	svc := newTestCaptchaService(t, "http://127.0.0.1:1")
	_, err := svc.Solve(context.Background(), filepath.Join(t.TempDir(), "absent.png"))
	assert.True(t, models.IsKind(err, models.KindCaptchaSolveFailure))
}
