package handler

import (
	"encoding/json"
	"net/http"

	"errorrelay/internal/api/response"
	"errorrelay/internal/store"
)

const invalidReportMessage = "Invalid error report format. Ensure that 'type' and a non-empty 'errors' array are provided."

// NewErrorsHandler returns the POST /errors handler. It validates and
// normalizes the batch, records it in the store, acknowledges with 202, and
// hands the report to the broker pipeline in the background. Reports without
// a channelId are stored but not dispatched — there is no channel to notify.
func NewErrorsHandler(st store.Store, d Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ErrorReport
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, invalidReportMessage)
			return
		}
		if req.Type == "" || len(req.Errors) == 0 {
			response.Error(w, http.StatusBadRequest, invalidReportMessage)
			return
		}

		p := buildReport(req.Type, req.Errors, req.Timestamp, req.ChannelID)
		st.SetLastProcessedError(p, p.ChannelID)

		if p.ChannelID != "" {
			dispatchAsync(d, p)
		}

		response.Accepted(w, map[string]any{
			"status":   "accepted",
			"severity": p.Priority,
		})
	}
}
