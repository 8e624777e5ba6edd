package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "errorrelay/internal/api/middleware"
	"errorrelay/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler      http.HandlerFunc
	ErrorsHandler      http.HandlerFunc
	WebhookHandler     http.HandlerFunc
	TickHandler        http.HandlerFunc
	IntegrationHandler http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/health", orNotImplemented(deps.HealthHandler))
	r.Get("/integration-json", orNotImplemented(deps.IntegrationHandler))
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/errors", orNotImplemented(deps.ErrorsHandler))
	r.Post("/webhook", orNotImplemented(deps.WebhookHandler))
	r.Post("/tick", orNotImplemented(deps.TickHandler))

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "Endpoint not yet implemented")
	}
}
