package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-zeromq/zmq4"

	"errorrelay/internal/analysis"
	"errorrelay/internal/notify"
	"errorrelay/pkg/models"
)

// Sentinel errors surfaced by the pipeline.
var (
	// ErrNotifyFailed reports that the initial channel notification could
	// not be delivered; the envelope is failed and no analysis is attempted.
	ErrNotifyFailed = errors.New("failed to send initial error report")

	// ErrNoRecentError signals the thread-reply sub-flow found nothing to
	// reply to: the thread was never mapped and the channel has no live
	// report.
	ErrNoRecentError = errors.New("no recent error for channel")
)

// ack is the reply endpoint's acknowledgement envelope.
type ack struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const invalidFormatMessage = "Invalid message format"

// handle runs one inbound envelope through the pipeline and returns the
// serialized acknowledgement. Rejections are final; they are never retried.
func (b *Broker) handle(ctx context.Context, raw []byte) []byte {
	envelopesReceived.Inc()

	p, err := parseEnvelope(raw)
	if err != nil {
		slog.Warn("rejecting envelope", "error", err)
		envelopesRejected.Inc()
		return marshalAck(ack{Status: "error", Message: invalidFormatMessage})
	}

	b.store.SetLastProcessedError(p, p.ChannelID)

	if err := b.Dispatch(ctx, p); err != nil {
		envelopesProcessed.WithLabelValues("error").Inc()
		return marshalAck(ack{Status: "error", Message: err.Error()})
	}

	envelopesProcessed.WithLabelValues("success").Inc()
	return marshalAck(ack{Status: "success"})
}

// Dispatch runs the notify → analyze → notify pipeline for one processed
// report and broadcasts the result on the publish endpoint. The initial
// notification must succeed; the analysis call and the broadcast are
// best-effort. Within one report the initial notification always precedes
// the analysis notification.
func (b *Broker) Dispatch(ctx context.Context, p models.ProcessedError) error {
	initial := notify.Payload{
		EventName: notify.EventName,
		Message:   initialReport(p),
		Status:    "error",
		Username:  notify.Username,
	}
	if !b.notifier.Notify(ctx, p.ChannelID, initial) {
		notifyFailures.Inc()
		return ErrNotifyFailed
	}

	// Give the channel time to render the first message before the
	// follow-up arrives. Presentation only, not a correctness mechanism.
	b.pause(ctx, b.cfg.NotifyDelay)

	text := b.gateway.Analyze(ctx, p.Errors, p.Type, p.Timestamp)
	if text == analysis.Fallback {
		analysisFallbacks.Inc()
	}

	followUp := notify.Payload{
		EventName: notify.EventName,
		Message:   analysisReport(p, text),
		Status:    "success",
		Username:  notify.Username,
	}
	if !b.notifier.Notify(ctx, p.ChannelID, followUp) {
		notifyFailures.Inc()
		slog.Error("follow-up notification failed", "channel_id", p.ChannelID, "error_id", p.ID)
	}

	b.Publish(p)
	return nil
}

// Publish broadcasts the processed report as an ["update", json] frame on
// the publish endpoint. Failures are logged and swallowed, never surfaced to
// the replying caller.
func (b *Broker) Publish(p models.ProcessedError) {
	body, err := json.Marshal(p)
	if err != nil {
		slog.Error("encoding update frame", "error_id", p.ID, "error", err)
		return
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if b.pub == nil {
		return
	}
	if err := b.pub.Send(zmq4.NewMsgFrom([]byte("update"), body)); err != nil {
		slog.Error("publish failed", "error_id", p.ID, "error", err)
		return
	}
	updatesPublished.Inc()
}

// ResolveThread returns the report a conversation thread refers to. On first
// contact the thread is mapped to the channel's most recent report, so later
// calls with the same thread resolve without consulting the recency index.
func (b *Broker) ResolveThread(threadID, channelID string) (models.ProcessedError, bool) {
	if m, ok := b.store.GetErrorByThreadID(threadID); ok {
		return m.Error, true
	}

	recent, ok := b.store.FindRecentError(channelID)
	if !ok {
		return models.ProcessedError{}, false
	}
	b.store.MapThreadToError(threadID, recent.ID.String(), channelID)
	return recent, true
}

// ReplyToThread runs an analysis request/response cycle for a thread
// follow-up: resolve the thread's report, fetch analysis, and post it back
// to the channel.
func (b *Broker) ReplyToThread(ctx context.Context, threadID, channelID string) error {
	p, ok := b.ResolveThread(threadID, channelID)
	if !ok {
		return ErrNoRecentError
	}

	text := b.gateway.Analyze(ctx, p.Errors, p.Type, p.Timestamp)
	if text == analysis.Fallback {
		analysisFallbacks.Inc()
	}

	payload := notify.Payload{
		EventName: notify.EventName,
		Message:   analysisReport(p, text),
		Status:    "success",
		Username:  notify.Username,
	}
	if !b.notifier.Notify(ctx, channelID, payload) {
		notifyFailures.Inc()
		return fmt.Errorf("thread reply: %w", ErrNotifyFailed)
	}
	return nil
}

// pause sleeps for d unless the context ends first.
func (b *Broker) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func marshalAck(a ack) []byte {
	body, err := json.Marshal(a)
	if err != nil {
		// ack is a two-field struct of strings; this cannot happen.
		return []byte(`{"status":"error"}`)
	}
	return body
}
