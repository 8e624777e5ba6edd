// Package handler implements the relay's HTTP endpoints.
package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"errorrelay/internal/severity"
	"errorrelay/pkg/models"
)

// dispatchTimeout bounds a background pipeline run: two webhook posts, one
// analysis call and the presentation delay all fit comfortably.
const dispatchTimeout = 2 * time.Minute

// Dispatcher runs the notify → analyze → notify → publish pipeline for a
// processed report.
type Dispatcher interface {
	Dispatch(ctx context.Context, p models.ProcessedError) error
}

// ErrorReport is the raw error batch shape shared by POST /errors and the
// error_data branch of POST /webhook.
type ErrorReport struct {
	Type      string             `json:"type"`
	Errors    []models.ErrorItem `json:"errors"`
	Timestamp string             `json:"timestamp"`
	ChannelID string             `json:"channelId"`
}

// buildReport normalizes a raw batch into the canonical ProcessedError:
// fresh id, enriched items, computed overall severity, display timestamp.
func buildReport(errType string, items []models.ErrorItem, timestamp, channelID string) models.ProcessedError {
	enriched := severity.Enrich(items)
	return models.ProcessedError{
		ID:        uuid.New(),
		Type:      errType,
		Errors:    enriched,
		Timestamp: models.FormatTimestamp(timestamp),
		Priority:  severity.Overall(enriched),
		ChannelID: channelID,
	}
}

// dispatchAsync hands a report to the broker pipeline in the background. The
// HTTP caller has already been acknowledged; pipeline failures only get
// logged here.
func dispatchAsync(d Dispatcher, p models.ProcessedError) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := d.Dispatch(ctx, p); err != nil {
			slog.Error("background dispatch failed", "error_id", p.ID, "channel_id", p.ChannelID, "error", err)
		}
	}()
}
