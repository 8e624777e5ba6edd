// Package severity classifies error messages into tiers by case-insensitive
// keyword matching. Classification is pure and total: any input maps to
// exactly one tier and nothing here performs I/O.
package severity

import (
	"fmt"
	"strings"

	"errorrelay/pkg/models"
)

// Keyword tables per tier. The first matching tier wins; ordering of aliases
// within a tier does not matter. Everything else is Low.
var (
	highKeywords = []string{
		"referenceerror",
		"syntaxerror",
		"internalerror",
	}
	mediumKeywords = []string{
		"typeerror",
		"rangeerror",
		"evalerror",
		"urierror",
		"aggregateerror",
		"domexception",
		"networkerror",
		"timeout",
	}
)

// Categorize maps an error message to its severity tier.
func Categorize(message string) models.Severity {
	m := strings.ToLower(message)
	for _, kw := range highKeywords {
		if strings.Contains(m, kw) {
			return models.SeverityHigh
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(m, kw) {
			return models.SeverityMedium
		}
	}
	return models.SeverityLow
}

// Overall returns the maximum severity across a batch: a single High item
// makes the batch High regardless of how many Low items accompany it.
// An empty batch is Low.
func Overall(items []models.ErrorItem) models.Severity {
	overall := models.SeverityLow
	for _, it := range items {
		overall = models.MaxSeverity(overall, Categorize(it.Message))
	}
	return overall
}

// Indicator returns the channel glyph for a severity tier.
func Indicator(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "🚨"
	case models.SeverityLow:
		return "ℹ️"
	default:
		return "⚠️"
	}
}

// Enrich derives ReadableMessage on every item: a severity-tagged rendering
// of the raw message. Returns a new slice; the input is not mutated.
func Enrich(items []models.ErrorItem) []models.ErrorItem {
	enriched := make([]models.ErrorItem, len(items))
	for i, it := range items {
		s := Categorize(it.Message)
		it.ReadableMessage = fmt.Sprintf("%s %s severity error: %s", Indicator(s), s, it.Message)
		enriched[i] = it
	}
	return enriched
}
