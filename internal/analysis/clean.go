package analysis

import (
	"regexp"
	"strings"
)

// Markup-stripping regexes compiled once at package init.
var (
	reHeader    = regexp.MustCompile(`(?m)^#+ `)
	reBold      = regexp.MustCompile(`\*\*`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// retags prefix the known section headers so they stand out in a plain-text
// channel message, and tag severity mentions with their indicator glyph.
var retags = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)Error Pattern`), "📊 Error Pattern"},
	{regexp.MustCompile(`(?i)Occurrence Count`), "🔢 Occurrence Count"},
	{regexp.MustCompile(`(?i)Root Cause`), "🔍 Root Cause"},
	{regexp.MustCompile(`(?i)Suggested Fix`), "🔧 Suggested Fix"},
	{regexp.MustCompile(`(?i)Prevention Tip`), "🛡️ Prevention Tip"},
	{regexp.MustCompile(`(?i)General Notes`), "📋 General Notes"},
	{regexp.MustCompile(`(?i)High severity`), "High severity 🚨"},
	{regexp.MustCompile(`(?i)Medium severity`), "Medium severity ⚠️"},
	{regexp.MustCompile(`(?i)Low severity`), "Low severity ℹ️"},
}

// CleanText strips markdown artifacts from agent output and re-tags the
// known section headers for readability.
func CleanText(text string) string {
	text = reHeader.ReplaceAllString(text, "")
	text = reBold.ReplaceAllString(text, "")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	for _, rt := range retags {
		text = rt.re.ReplaceAllString(text, rt.repl)
	}
	return strings.TrimSpace(text)
}
