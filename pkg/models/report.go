// Package models contains shared data models used across the error relay.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity classifies an error (or a batch) into one of three tiers,
// totally ordered High > Medium > Low.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Rank maps a severity tier to its position in the ordering. Unknown values
// rank below Low so they never win a max comparison.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is one of the three known tiers.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ErrorItem is a single reported application error. ReadableMessage is
// derived during enrichment and is never empty afterwards.
type ErrorItem struct {
	Message         string `json:"message"`
	Stack           string `json:"stack"`
	ReadableMessage string `json:"readableMessage,omitempty"`
}

// ProcessedError is the canonical enriched error report. Normalization
// happens once at ingestion; downstream components rely on this shape
// unconditionally. ID is generated at ingestion and never reassigned.
type ProcessedError struct {
	ID        uuid.UUID   `json:"id"`
	Type      string      `json:"type"`
	Errors    []ErrorItem `json:"errors"`
	Timestamp string      `json:"timestamp"`
	Priority  Severity    `json:"priority,omitempty"`
	ChannelID string      `json:"channelId"`
}

// FormatTimestamp renders an RFC3339 timestamp in the locale-style form used
// in channel messages ("2/17/2024, 1:47:32 AM"). Empty or unparseable input
// falls back to the current time.
func FormatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t = time.Now()
	}
	return t.Format("1/2/2006, 3:04:05 PM")
}
