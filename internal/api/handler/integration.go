package handler

import (
	"net/http"

	"errorrelay/internal/api/response"
)

// NewIntegrationHandler serves the GET /integration-json discovery document
// consumed by the channel platform. publicURL is the externally reachable
// base of this server.
func NewIntegrationHandler(publicURL string) http.HandlerFunc {
	doc := map[string]any{
		"data": map[string]any{
			"descriptions": map[string]any{
				"app_name": "Code Error Agent",
				"app_description": "Analyzes application error reports and relays them to channels " +
					"with prioritized severity classification and AI-generated analysis.",
				"app_url":          publicURL,
				"background_color": "#FF4444",
			},
			"integration_category": "AI & Machine Learning",
			"integration_type":     "interval",
			"is_active":            true,
			"output": []map[string]any{
				{"label": "error_notifications", "value": true},
			},
			"key_features": []string{
				"Prioritized error classification (High, Medium, Low)",
				"Automated error reporting to channels",
				"AI-generated error analysis with root cause and fixes",
				"Thread follow-up replies on reported errors",
			},
			"settings": []map[string]any{
				{"label": "errorThreshold", "type": "text", "required": true, "default": "1"},
				{"label": "interval", "type": "text", "required": true, "default": "*/15 * * * *"},
			},
			"tick_url":   publicURL + "/tick",
			"target_url": publicURL + "/webhook",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, doc)
	}
}
