package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"errorrelay/internal/api/response"
)

func okHandler(marker string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"handler": marker})
	}
}

func TestNewRouter_Routes(t *testing.T) {
	router := NewRouter(Dependencies{
		HealthHandler:      okHandler("health"),
		ErrorsHandler:      okHandler("errors"),
		WebhookHandler:     okHandler("webhook"),
		TickHandler:        okHandler("tick"),
		IntegrationHandler: okHandler("integration"),
	})

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/integration-json", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/errors", http.StatusOK},
		{http.MethodPost, "/webhook", http.StatusOK},
		{http.MethodPost, "/tick", http.StatusOK},
		{http.MethodGet, "/errors", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestNewRouter_MissingHandler(t *testing.T) {
	router := NewRouter(Dependencies{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
