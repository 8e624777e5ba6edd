package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"errorrelay/pkg/models"
)

func newReport(channelID string) models.ProcessedError {
	return models.ProcessedError{
		ID:        uuid.New(),
		Type:      "runtime",
		Errors:    []models.ErrorItem{{Message: "ReferenceError: foo"}},
		Timestamp: "2/17/2024, 1:47:32 AM",
		Priority:  models.SeverityHigh,
		ChannelID: channelID,
	}
}

// newTestStore returns a store with a controllable clock.
func newTestStore(start time.Time) (*MemoryStore, *time.Time) {
	s := NewMemoryStore()
	now := start
	s.now = func() time.Time { return now }
	return s, &now
}

func TestFindRecentError(t *testing.T) {
	s, now := newTestStore(time.Unix(1000, 0))

	first := newReport("c1")
	s.SetLastProcessedError(first, "c1")

	got, ok := s.FindRecentError("c1")
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)

	*now = now.Add(time.Minute)
	second := newReport("c1")
	s.SetLastProcessedError(second, "c1")

	got, ok = s.FindRecentError("c1")
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
}

func TestFindRecentError_TieBreaksToLastInserted(t *testing.T) {
	// Clock never advances, so both entries share one timestamp.
	s, _ := newTestStore(time.Unix(1000, 0))

	first := newReport("c1")
	second := newReport("c1")
	s.SetLastProcessedError(first, "c1")
	s.SetLastProcessedError(second, "c1")

	got, ok := s.FindRecentError("c1")
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
}

func TestFindRecentError_ChannelScoped(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))
	s.SetLastProcessedError(newReport("c1"), "c1")

	_, ok := s.FindRecentError("c2")
	assert.False(t, ok)
}

func TestMapThreadToError(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))
	report := newReport("c1")
	s.SetLastProcessedError(report, "c1")

	ok := s.MapThreadToError("th1", report.ID.String(), "c1")
	require.True(t, ok)

	m, found := s.GetErrorByThreadID("th1")
	require.True(t, found)
	assert.Equal(t, report.ID, m.Error.ID)
	assert.Equal(t, []string{"th1"}, m.ThreadIDs)
	assert.Equal(t, "c1", m.ChannelID)
}

func TestMapThreadToError_UnknownErrorID(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))

	ok := s.MapThreadToError("th1", uuid.NewString(), "c1")
	assert.False(t, ok)

	// The thread index must not point at a dead report.
	_, found := s.GetErrorByThreadID("th1")
	assert.False(t, found)
}

func TestMapThreadToError_RemapLastWriteWins(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))
	first := newReport("c1")
	second := newReport("c1")
	s.SetLastProcessedError(first, "c1")
	s.SetLastProcessedError(second, "c1")

	require.True(t, s.MapThreadToError("th1", first.ID.String(), "c1"))
	require.True(t, s.MapThreadToError("th1", second.ID.String(), "c1"))

	m, found := s.GetErrorByThreadID("th1")
	require.True(t, found)
	assert.Equal(t, second.ID, m.Error.ID)

	// The old mapping no longer claims the thread.
	old, found := s.errors[first.ID.String()]
	require.True(t, found)
	assert.NotContains(t, old.mapping.ThreadIDs, "th1")
}

func TestMapThreadToError_Idempotent(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))
	report := newReport("c1")
	s.SetLastProcessedError(report, "c1")

	require.True(t, s.MapThreadToError("th1", report.ID.String(), "c1"))
	require.True(t, s.MapThreadToError("th1", report.ID.String(), "c1"))

	m, found := s.GetErrorByThreadID("th1")
	require.True(t, found)
	assert.Equal(t, []string{"th1"}, m.ThreadIDs)
}

func TestSetLastProcessedError_ReinsertionReplaces(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))
	report := newReport("c1")
	s.SetLastProcessedError(report, "c1")
	require.True(t, s.MapThreadToError("th1", report.ID.String(), "c1"))

	// Re-insertion resets thread ids and drops their index entries.
	s.SetLastProcessedError(report, "c1")

	_, found := s.GetErrorByThreadID("th1")
	assert.False(t, found)

	m, ok := s.FindRecentError("c1")
	require.True(t, ok)
	assert.Equal(t, report.ID, m.ID)
	assert.Equal(t, 1, s.Len())
}

func TestCleanup_EvictsExpired(t *testing.T) {
	s, now := newTestStore(time.Unix(1000, 0))
	report := newReport("c1")
	s.SetLastProcessedError(report, "c1")
	require.True(t, s.MapThreadToError("th1", report.ID.String(), "c1"))

	// Just inside the age bound: nothing is evicted.
	*now = now.Add(24 * time.Hour)
	assert.Equal(t, 0, s.Cleanup(24*time.Hour))
	_, ok := s.FindRecentError("c1")
	assert.True(t, ok)

	// Past the bound: the report and its thread mappings go together.
	*now = now.Add(time.Second)
	assert.Equal(t, 1, s.Cleanup(24*time.Hour))

	_, ok = s.FindRecentError("c1")
	assert.False(t, ok)
	_, ok = s.GetErrorByThreadID("th1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.threads)
}

func TestCleanup_KeepsFresh(t *testing.T) {
	s, now := newTestStore(time.Unix(1000, 0))
	old := newReport("c1")
	s.SetLastProcessedError(old, "c1")

	*now = now.Add(25 * time.Hour)
	fresh := newReport("c1")
	s.SetLastProcessedError(fresh, "c1")

	assert.Equal(t, 1, s.Cleanup(24*time.Hour))

	got, ok := s.FindRecentError("c1")
	require.True(t, ok)
	assert.Equal(t, fresh.ID, got.ID)
}

func TestGetErrorByThreadID_CopyIsIsolated(t *testing.T) {
	s, _ := newTestStore(time.Unix(1000, 0))
	report := newReport("c1")
	s.SetLastProcessedError(report, "c1")
	require.True(t, s.MapThreadToError("th1", report.ID.String(), "c1"))

	m, found := s.GetErrorByThreadID("th1")
	require.True(t, found)
	m.ThreadIDs[0] = "mutated"

	again, found := s.GetErrorByThreadID("th1")
	require.True(t, found)
	assert.Equal(t, []string{"th1"}, again.ThreadIDs)
}
