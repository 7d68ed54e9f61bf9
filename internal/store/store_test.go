package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/forgeerr"
)

func newTestStore(t *testing.T) *ManifoldStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveManifoldAppendsNeverUpdates(t *testing.T) {
	s := newTestStore(t)

	v1, err := s.SaveManifold(`{"goals":1}`, 1000, "agent-a")
	require.NoError(t, err)
	v2, err := s.SaveManifold(`{"goals":2}`, 2000, "agent-a")
	require.NoError(t, err)

	assert.Greater(t, v2, v1)

	versions, err := s.ListManifoldVersions(10)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Greater(t, versions[0], versions[1], "expected strictly decreasing order")
}

func TestLoadLatestManifoldReturnsHighestVersion(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveManifold(`{"v":1}`, 1000, "")
	require.NoError(t, err)
	v2, err := s.SaveManifold(`{"v":2}`, 2000, "")
	require.NoError(t, err)

	latest, err := s.LoadLatestManifold()
	require.NoError(t, err)
	assert.Equal(t, v2, latest.Version)
	assert.Equal(t, `{"v":2}`, latest.Payload)
}

func TestLoadLatestManifoldFailsOnHashMismatch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveManifold(`{"v":1}`, 1000, "")
	require.NoError(t, err)

	_, err = s.db.Exec(`UPDATE manifold_snapshots SET payload = ? WHERE version = 1`, `{"v":"tampered"}`)
	require.NoError(t, err)

	_, err = s.LoadLatestManifold()
	require.Error(t, err)
	assert.True(t, forgeerr.Is(err, forgeerr.IntegrityFailure))
}

func TestAppendAgentMessageIdempotentOnID(t *testing.T) {
	s := newTestStore(t)

	msg := AgentMessage{ID: "m1", From: "architect", To: "worker", Type: "plan", Payload: "{}", TimestampMs: 1, SessionID: "s1"}
	require.NoError(t, s.AppendAgentMessage(msg))

	dup := msg
	dup.Payload = "{\"changed\":true}"
	require.NoError(t, s.AppendAgentMessage(dup))

	msgs, err := s.MessagesForSession("s1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "{}", msgs[0].Payload)
}

func TestAppendEpisodeIdempotentOnID(t *testing.T) {
	s := newTestStore(t)

	ep := StoredEpisode{ID: "e1", AgentID: "a1", EventType: "decision", Description: "chose plan A", Importance: 0.9, TimestampMs: 1}
	require.NoError(t, s.AppendEpisode(ep))
	require.NoError(t, s.AppendEpisode(ep))

	episodes, err := s.EpisodesByAgent("a1")
	require.NoError(t, err)
	assert.Len(t, episodes, 1)
}

func TestRecentEpisodesNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, s.AppendEpisode(StoredEpisode{ID: id, EventType: "note", Description: "x", TimestampMs: int64(i)}))
	}

	recent, err := s.RecentEpisodes(10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "e3", recent[0].ID)
}
