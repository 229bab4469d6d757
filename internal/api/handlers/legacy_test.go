package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/fssp-api/internal/models"
)

func newLegacyRouter(svc *fakeFSSPService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := NewFSSPHandler(svc, testLogger())
	handler.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	router := gin.New()
	router.POST("/api/ip", handler.LegacySearchByIP)
	router.POST("/api/person", handler.LegacySearchByPerson)
	router.POST("/api/inn", handler.LegacySearchByINN)
	return router
}

func TestLegacySearchReturnsBareList(t *testing.T) {
	svc := &fakeFSSPService{items: models.CaseList{{Debtor: "ООО Ромашка", ProceedingNumber: "1/24/77001-ИП"}}}
	router := newLegacyRouter(svc)

	w := post(router, "/api/ip", map[string]string{"ip": " 342956/24/23060-ИП "})
	require.Equal(t, http.StatusOK, w.Code)

	var items []models.CaseRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "ООО Ромашка", items[0].Debtor)
	assert.Equal(t, models.IPQuery{Number: "342956/24/23060-ИП"}, svc.lastQuery)
}

func TestLegacySearchEmptyListIsArray(t *testing.T) {
	router := newLegacyRouter(&fakeFSSPService{})

	w := post(router, "/api/inn", models.INNRequest{INN: "7707083893"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestLegacySearchErrors(t *testing.T) {
	cause := errors.New("net::ERR_CONNECTION_RESET at 10.0.0.7")

	tests := []struct {
		name   string
		err    error
		path   string
		body   interface{}
		status int
		want   models.DetailResponse
	}{
		{
			name:   "limit",
			err:    models.NewLookupError(models.KindCaptchaAttemptsExceeded, "too many captcha attempts", nil),
			path:   "/api/inn",
			body:   models.INNRequest{INN: "7707083893"},
			status: http.StatusTooManyRequests,
			want:   models.DetailResponse{Detail: "too many captcha attempts", ErrorCode: "CAPTCHA_LIMIT_EXCEEDED"},
		},
		{
			name:   "unavailable",
			err:    models.Unavailable("navigation failed", cause),
			path:   "/api/inn",
			body:   models.INNRequest{INN: "7707083893"},
			status: http.StatusBadGateway,
			want:   models.DetailResponse{Detail: "navigation failed"},
		},
		{
			name:   "unclassified",
			err:    cause,
			path:   "/api/inn",
			body:   models.INNRequest{INN: "7707083893"},
			status: http.StatusInternalServerError,
			want:   models.DetailResponse{Detail: models.UnexpectedErrorMessage},
		},
		{
			name:   "invalid birthday",
			path:   "/api/person",
			body:   models.PersonRequest{LastName: "Иванов", FirstName: "Иван", Birthday: "1980-01-01"},
			status: http.StatusUnprocessableEntity,
			want:   models.DetailResponse{Detail: "birthday: must be in DD.MM.YYYY format"},
		},
		{
			name:   "missing ip",
			path:   "/api/ip",
			body:   map[string]string{},
			status: http.StatusUnprocessableEntity,
			want:   models.DetailResponse{Detail: "ip: is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newLegacyRouter(&fakeFSSPService{err: tt.err})
			w := post(router, tt.path, tt.body)

			assert.Equal(t, tt.status, w.Code)

			var got models.DetailResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, w.Body.String(), "ERR_CONNECTION_RESET")
		})
	}
}
