package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() Payload {
	return Payload{
		EventName: EventName,
		Message:   "🚨 New Error Report",
		Status:    "error",
		Username:  Username,
	}
}

func TestNotify_Success(t *testing.T) {
	var gotPath, gotContentType, gotUserAgent string
	var gotBody Payload

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	ok := n.Notify(context.Background(), "channel-1", testPayload())

	require.True(t, ok)
	assert.Equal(t, "/channel-1", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Code Error Agent/1.0.0", gotUserAgent)
	assert.Equal(t, testPayload(), gotBody)
}

func TestNotify_EscapesChannelID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL+"/", time.Second)
	require.True(t, n.Notify(context.Background(), "a/b c", testPayload()))
	assert.Equal(t, "/a%2Fb%20c", gotPath)
}

func TestNotify_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	assert.False(t, n.Notify(context.Background(), "channel-1", testPayload()))
}

func TestNotify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	n := NewWebhookNotifier(srv.URL, time.Second)
	assert.False(t, n.Notify(context.Background(), "channel-1", testPayload()))
}

func TestNotify_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewWebhookNotifier(srv.URL, time.Second)
	assert.False(t, n.Notify(ctx, "channel-1", testPayload()))
}
