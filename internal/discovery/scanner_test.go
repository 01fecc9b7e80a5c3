package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSession lays out one session under the transcript root and pins the
// transcript mtime so ordering is deterministic.
func writeSession(t *testing.T, root, project, sessionID string, modTime time.Time) {
	t.Helper()
	dir := filepath.Join(root, project, "sessions", sessionID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	transcript := filepath.Join(dir, "transcript.jsonl")
	require.NoError(t, os.WriteFile(transcript, []byte("{}\n"), 0o644))
	require.NoError(t, os.Chtimes(transcript, modTime, modTime))
}

func writeMetadata(t *testing.T, root, project, sessionID, content string) {
	t.Helper()
	path := filepath.Join(root, project, "sessions", sessionID, "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestListSessions(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	writeSession(t, root, "-home-user-alpha", "aaaa1111", base)
	writeSession(t, root, "-home-user-beta", "bbbb2222", base.Add(10*time.Minute))
	writeSession(t, root, "-home-user-alpha", "cccc3333", base.Add(20*time.Minute))

	s := NewScanner(root, 0)
	sessions, err := s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	// Newest first
	assert.Equal(t, "cccc3333", sessions[0].SessionID)
	assert.Equal(t, "bbbb2222", sessions[1].SessionID)
	assert.Equal(t, "aaaa1111", sessions[2].SessionID)

	assert.Equal(t, "/home/user/alpha", sessions[0].ProjectPath)
	assert.Equal(t, "alpha", sessions[0].Project)
}

func TestListSessions_Limit(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeSession(t, root, "-home-user-p", "s1", base)
	writeSession(t, root, "-home-user-p", "s2", base.Add(time.Minute))
	writeSession(t, root, "-home-user-p", "s3", base.Add(2*time.Minute))

	s := NewScanner(root, 0)
	sessions, err := s.ListSessions(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Equal(t, "s3", sessions[0].SessionID)
}

func TestListSessions_SkipsSubSessions(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeSession(t, root, "-home-user-p", "root-session", now)
	writeSession(t, root, "-home-user-p", "root-session_child1", now)

	s := NewScanner(root, 0)
	sessions, err := s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "root-session", sessions[0].SessionID)
}

func TestListSessions_SkipsSessionsWithoutTranscript(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-home-user-p", "has-transcript", time.Now())
	empty := filepath.Join(root, "-home-user-p", "sessions", "no-transcript")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	s := NewScanner(root, 0)
	sessions, err := s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "has-transcript", sessions[0].SessionID)
}

func TestListSessions_ReadsMetadata(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-home-user-p", "named", time.Now())
	writeMetadata(t, root, "-home-user-p", "named",
		`{"name": "Refactor auth", "description": "Splitting the auth package"}`)

	s := NewScanner(root, 0)
	sessions, err := s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Refactor auth", sessions[0].Name)
	assert.Equal(t, "Splitting the auth package", sessions[0].Description)
}

func TestListSessions_MalformedMetadataIgnored(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-home-user-p", "s1", time.Now())
	writeMetadata(t, root, "-home-user-p", "s1", "not json")

	s := NewScanner(root, 0)
	sessions, err := s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Empty(t, sessions[0].Name)
}

func TestListSessions_MissingRoot(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "does-not-exist"), 0)
	sessions, err := s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestListSessions_CacheAndInvalidate(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-home-user-p", "s1", time.Now().Add(-time.Minute))

	s := NewScanner(root, time.Minute)
	sessions, err := s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	// A new session is invisible until the cache is invalidated
	writeSession(t, root, "-home-user-p", "s2", time.Now())
	sessions, err = s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	s.Invalidate()
	sessions, err = s.ListSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestMostRecent(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeSession(t, root, "-home-user-p", "older", base)
	writeSession(t, root, "-home-user-p", "newer", base.Add(time.Minute))

	s := NewScanner(root, 0)
	recent, err := s.MostRecent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "newer", recent.SessionID)
}

func TestMostRecent_Empty(t *testing.T) {
	s := NewScanner(t.TempDir(), 0)
	_, err := s.MostRecent(context.Background())
	require.ErrorIs(t, err, ErrNoSessions)
}

func TestResolveSessionID(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeSession(t, root, "-home-user-p", "abcd1234-5678-90ef", base)
	writeSession(t, root, "-home-user-p", "ffff0000-1111-2222", base.Add(time.Minute))

	s := NewScanner(root, 0)
	ctx := context.Background()

	resolved, err := s.ResolveSessionID(ctx, "abcd1234-5678-90ef")
	require.NoError(t, err)
	assert.Equal(t, "abcd1234-5678-90ef", resolved)

	// Prefix expands to the full id
	resolved, err = s.ResolveSessionID(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "abcd1234-5678-90ef", resolved)

	// Most-recent token resolves to the newest session
	resolved, err = s.ResolveSessionID(ctx, MostRecentToken)
	require.NoError(t, err)
	assert.Equal(t, "ffff0000-1111-2222", resolved)

	_, err = s.ResolveSessionID(ctx, "zzzz")
	require.ErrorIs(t, err, ErrNoSessions)
}

func TestTranscriptPath(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-home-user-p", "abcd1234-5678", time.Now())

	s := NewScanner(root, 0)
	ctx := context.Background()

	path, ok := s.TranscriptPath(ctx, "abcd1234-5678")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "-home-user-p", "sessions", "abcd1234-5678", "transcript.jsonl"), path)

	// Prefix match
	path, ok = s.TranscriptPath(ctx, "abcd")
	require.True(t, ok)
	assert.Contains(t, path, "abcd1234-5678")

	_, ok = s.TranscriptPath(ctx, "missing")
	assert.False(t, ok)
}

func TestTranscriptPath_MostRecentToken(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeSession(t, root, "-home-user-p", "older", base)
	writeSession(t, root, "-home-user-p", "newer", base.Add(time.Minute))

	s := NewScanner(root, 0)
	path, ok := s.TranscriptPath(context.Background(), MostRecentToken)
	require.True(t, ok)
	assert.Contains(t, path, "newer")
}

func TestDateLabel(t *testing.T) {
	info := SessionInfo{ModTime: time.Date(2026, 3, 9, 14, 30, 0, 0, time.Local)}
	assert.Equal(t, "03/09 14:30", info.DateLabel())
}
