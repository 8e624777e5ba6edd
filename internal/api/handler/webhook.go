package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"errorrelay/internal/api/response"
	"errorrelay/internal/broker"
	"errorrelay/internal/store"
)

// ThreadReplier resolves a conversation thread to a stored report and runs
// the analysis response cycle for it.
type ThreadReplier interface {
	ReplyToThread(ctx context.Context, threadID, channelID string) error
}

// WebhookRequest is the POST /webhook body. Two shapes are recognized: a
// chat follow-up (message + thread_id) and a pushed error report
// (error_data). Anything else is rejected.
type WebhookRequest struct {
	Message   string       `json:"message"`
	ChannelID string       `json:"channel_id"`
	ThreadID  string       `json:"thread_id"`
	ErrorData *ErrorReport `json:"error_data"`
}

// NewWebhookHandler returns the POST /webhook handler.
func NewWebhookHandler(st store.Store, d Dispatcher, tr ThreadReplier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WebhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid webhook payload")
			return
		}

		switch {
		case req.ErrorData != nil:
			ingestErrorData(w, req, st, d)

		case req.Message != "" && req.ThreadID != "":
			if req.ChannelID == "" {
				response.Error(w, http.StatusBadRequest, "channel_id is required")
				return
			}
			err := tr.ReplyToThread(r.Context(), req.ThreadID, req.ChannelID)
			switch {
			case errors.Is(err, broker.ErrNoRecentError):
				response.Error(w, http.StatusNotFound, "No recent error found for this channel")
			case err != nil:
				response.Error(w, http.StatusInternalServerError, "Internal server error")
			default:
				response.JSON(w, http.StatusOK, map[string]string{"status": "success"})
			}

		default:
			response.Error(w, http.StatusBadRequest, "Unrecognized webhook payload")
		}
	}
}

// ingestErrorData treats a pushed error_data body as a new error report for
// the webhook's channel.
func ingestErrorData(w http.ResponseWriter, req WebhookRequest, st store.Store, d Dispatcher) {
	ed := req.ErrorData
	if ed.Type == "" || len(ed.Errors) == 0 {
		response.Error(w, http.StatusBadRequest, invalidReportMessage)
		return
	}

	channelID := ed.ChannelID
	if channelID == "" {
		channelID = req.ChannelID
	}

	p := buildReport(ed.Type, ed.Errors, ed.Timestamp, channelID)
	st.SetLastProcessedError(p, channelID)

	if channelID != "" {
		dispatchAsync(d, p)
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"severity": p.Priority,
	})
}
