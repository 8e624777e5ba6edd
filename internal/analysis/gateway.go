// Package analysis requests AI-generated analysis text for error batches
// from the error-analysis agent.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"errorrelay/pkg/models"
)

// Fallback is substituted whenever the analysis backend cannot produce a
// usable response. Analysis failures are never fatal to an envelope.
const Fallback = "No analysis available"

const generatePath = "/api/agents/errorAnalysisAgent/generate"

// Gateway produces analysis text for an error batch. Implementations are
// total: any backend failure (timeout, non-2xx, malformed response) yields
// the fixed fallback text instead of an error.
type Gateway interface {
	Analyze(ctx context.Context, items []models.ErrorItem, errType, timestamp string) string
}

// HTTPGateway calls the analysis agent over HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway against the agent base URL. The timeout
// bounds each generate call.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (g *HTTPGateway) Analyze(ctx context.Context, items []models.ErrorItem, errType, timestamp string) string {
	prompt := buildPrompt(items, errType, timestamp)
	body, err := json.Marshal(generateRequest{
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		slog.Error("encoding analysis request", "error", err)
		return Fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		slog.Error("building analysis request", "error", err)
		return Fallback
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		slog.Error("analysis backend unreachable", "error", err)
		return Fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("analysis backend rejected request", "status", resp.StatusCode)
		return Fallback
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		slog.Error("decoding analysis response", "error", err)
		return Fallback
	}
	if out.Text == "" {
		return Fallback
	}
	return CleanText(out.Text)
}

// buildPrompt renders the batch as the structured prompt the agent expects.
func buildPrompt(items []models.ErrorItem, errType, timestamp string) string {
	detail, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		detail = []byte("[]")
	}
	return fmt.Sprintf(`Analyze these errors:
Type: %s
Timestamp: %s
Errors: %s

Provide analysis including:
1. Error patterns
2. Root cause
3. Suggested fixes
4. Prevention tips`, errType, timestamp, detail)
}

// Compile-time check that HTTPGateway implements Gateway.
var _ Gateway = (*HTTPGateway)(nil)
