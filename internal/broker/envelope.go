package broker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"errorrelay/internal/severity"
	"errorrelay/pkg/models"
)

// errInvalidFormat covers both unparseable JSON and schema-invalid
// envelopes. Either way the envelope is rejected immediately and never
// retried.
var errInvalidFormat = errors.New("invalid message format")

// envelope is the loosely-typed wire shape accepted on the reply endpoint.
// Older producers send a single flat message/stack pair instead of an
// errors batch; normalization folds that into a one-element batch.
type envelope struct {
	ID        string             `json:"id"`
	Type      string             `json:"type"`
	Errors    []models.ErrorItem `json:"errors"`
	Message   string             `json:"message"`
	Stack     string             `json:"stack"`
	Timestamp string             `json:"timestamp"`
	Priority  models.Severity    `json:"priority"`
	ChannelID string             `json:"channelId"`
}

// parseEnvelope normalizes a raw envelope into the canonical ProcessedError:
// items are classified and enriched, the overall severity is computed (an
// explicit priority on the envelope is trusted over the computed one), and
// the timestamp is rendered for channel display.
func parseEnvelope(raw []byte) (models.ProcessedError, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.ProcessedError{}, fmt.Errorf("%w: %v", errInvalidFormat, err)
	}

	if len(env.Errors) == 0 && env.Message != "" {
		env.Errors = []models.ErrorItem{{Message: env.Message, Stack: env.Stack}}
		env.ID = "" // flat envelopes never carry a usable id
	}
	if env.ChannelID == "" || env.Type == "" || len(env.Errors) == 0 {
		return models.ProcessedError{}, fmt.Errorf("%w: channelId, type and a non-empty errors array are required", errInvalidFormat)
	}

	id, err := uuid.Parse(env.ID)
	if err != nil {
		id = uuid.New()
	}

	items := severity.Enrich(env.Errors)
	priority := env.Priority
	if !priority.Valid() {
		priority = severity.Overall(items)
	}

	return models.ProcessedError{
		ID:        id,
		Type:      env.Type,
		Errors:    items,
		Timestamp: models.FormatTimestamp(env.Timestamp),
		Priority:  priority,
		ChannelID: env.ChannelID,
	}, nil
}
