package broker

import (
	"fmt"
	"strings"

	"errorrelay/internal/severity"
	"errorrelay/pkg/models"
)

// errorSummary renders the batch as a numbered list, preferring the enriched
// readable message over the raw one.
func errorSummary(items []models.ErrorItem) string {
	lines := make([]string, len(items))
	for i, it := range items {
		msg := it.ReadableMessage
		if msg == "" {
			msg = it.Message
		}
		if msg == "" {
			msg = "N/A"
		}
		lines[i] = fmt.Sprintf("  %d. %s", i+1, msg)
	}
	return strings.Join(lines, "\n")
}

// initialReport builds the first channel message for a processed report.
func initialReport(p models.ProcessedError) string {
	return fmt.Sprintf(`🚨 New Error Report

Type: %s
Time: %s
Overall Severity: %s %s

Errors:
%s`, p.Type, p.Timestamp, p.Priority, severity.Indicator(p.Priority), errorSummary(p.Errors))
}

// analysisReport builds the follow-up channel message carrying the analysis
// text (or its fallback).
func analysisReport(p models.ProcessedError, analysisText string) string {
	return fmt.Sprintf(`🤖 Error Analysis Report

Type: %s
Time: %s
Overall Severity: %s %s

Errors:
%s

AI Analysis:
%s`, p.Type, p.Timestamp, p.Priority, severity.Indicator(p.Priority), errorSummary(p.Errors), analysisText)
}
