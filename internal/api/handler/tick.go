package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"errorrelay/internal/api/response"
	"errorrelay/internal/notify"
	"errorrelay/internal/store"
	"errorrelay/pkg/models"
)

// TickRequest is the scheduling payload posted to /tick. Only channel_id is
// meaningful here; the rest of the payload is opaque.
type TickRequest struct {
	ChannelID string `json:"channel_id"`
}

// NewTickHandler returns the POST /tick handler. The tick is an external
// best-effort trigger: it is acknowledged with 202 immediately, then the
// most recent report for the channel is forwarded to the webhook in the
// background.
func NewTickHandler(st store.Store, n notify.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TickRequest
		// Opaque payload: decode what we can, ignore the rest.
		_ = json.NewDecoder(r.Body).Decode(&req)

		response.Accepted(w, map[string]string{"status": "accepted"})

		if req.ChannelID == "" {
			slog.Warn("tick payload missing channel_id")
			return
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
			defer cancel()

			p, ok := st.FindRecentError(req.ChannelID)
			if !ok {
				slog.Warn("no processed error available for tick report", "channel_id", req.ChannelID)
				return
			}

			payload := notify.Payload{
				EventName: notify.EventName,
				Message:   tickReport(p),
				Status:    "success",
				Username:  notify.Username,
			}
			n.Notify(ctx, req.ChannelID, payload)
		}()
	}
}

// tickReport renders the scheduled report body for the channel.
func tickReport(p models.ProcessedError) string {
	detail, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		detail = []byte("{}")
	}
	return strings.TrimSpace(fmt.Sprintf(`Error Report Details:
Type: %s
Priority: %s
Timestamp: %s
Reported By: %s
Event: Processed Error Report
Status: %s
Full Error Details: %s`, p.Type, p.Priority, p.Timestamp, notify.Username, tickStatus(p.Priority), detail))
}

func tickStatus(s models.Severity) string {
	if s == models.SeverityHigh {
		return "error"
	}
	return "info"
}
