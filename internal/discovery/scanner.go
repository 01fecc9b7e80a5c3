// Package discovery locates session transcripts on disk. Transcripts live
// under <root>/<project>/sessions/<id>/transcript.jsonl, where <project>
// is a hyphen-encoded filesystem path. Scans are cached and invalidated
// when the watcher reports filesystem changes.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zjrosen/parley/internal/cachemanager"
	"github.com/zjrosen/parley/internal/log"
)

// MostRecentToken is the session id placeholder that resolves to the most
// recently active session on disk.
const MostRecentToken = "__most_recent__"

// ErrNoSessions is returned when the transcript root holds no sessions.
var ErrNoSessions = errors.New("no sessions found")

const listCacheKey = "sessions:list"

// SessionInfo describes one discovered session.
type SessionInfo struct {
	// SessionID is the session directory name.
	SessionID string
	// Project is the short project label (last path element).
	Project string
	// ProjectPath is the decoded project path.
	ProjectPath string
	// ModTime is the transcript's last modification time, the best proxy
	// for last activity.
	ModTime time.Time
	// Name and Description come from the session's metadata.json, empty
	// when absent.
	Name        string
	Description string
}

// DateLabel formats the session's last activity for list display.
func (s SessionInfo) DateLabel() string {
	return s.ModTime.Format("01/02 15:04")
}

// Scanner discovers sessions under a transcript root, serving repeat
// lookups from cache.
type Scanner struct {
	rootDir string
	ttl     time.Duration
	cache   *cachemanager.MemoryStore[[]SessionInfo]
	lister  *cachemanager.ReadThrough[[]SessionInfo, string]
}

// NewScanner creates a scanner over the given transcript root. ttl bounds
// how long scan results are served from cache; zero disables caching.
func NewScanner(rootDir string, ttl time.Duration) *Scanner {
	cache := cachemanager.NewMemoryStore[[]SessionInfo](
		"session-discovery", cachemanager.DefaultTTL, cachemanager.DefaultCleanupInterval)
	s := &Scanner{
		rootDir: rootDir,
		ttl:     ttl,
		cache:   cache,
	}
	s.lister = cachemanager.NewReadThrough[[]SessionInfo, string](
		cache,
		func(ctx context.Context, root string) ([]SessionInfo, error) {
			return scan(root)
		},
		ttl <= 0,
	)
	return s
}

// Invalidate drops cached scan results. Wired to the transcript watcher.
func (s *Scanner) Invalidate() {
	if err := s.cache.Flush(context.Background()); err != nil {
		log.ErrorErr(log.CatDiscovery, "cache flush failed", err)
	}
}

// ListSessions returns discovered sessions sorted by last activity,
// newest first, capped at limit (0 means no cap). Sub-sessions (ids
// containing "_") are excluded.
func (s *Scanner) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	sessions, err := s.lister.Get(ctx, listCacheKey, s.rootDir, s.ttl)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// MostRecent returns the most recently active session. Returns
// ErrNoSessions when the root holds none.
func (s *Scanner) MostRecent(ctx context.Context) (SessionInfo, error) {
	sessions, err := s.ListSessions(ctx, 1)
	if err != nil {
		return SessionInfo{}, err
	}
	if len(sessions) == 0 {
		return SessionInfo{}, ErrNoSessions
	}
	return sessions[0], nil
}

// ResolveSessionID maps the most-recent token to a concrete session id
// and expands unique id prefixes to the full id.
func (s *Scanner) ResolveSessionID(ctx context.Context, sessionID string) (string, error) {
	if sessionID == MostRecentToken {
		recent, err := s.MostRecent(ctx)
		if err != nil {
			return "", err
		}
		return recent.SessionID, nil
	}
	sessions, err := s.ListSessions(ctx, 0)
	if err != nil {
		return "", err
	}
	for _, info := range sessions {
		if info.SessionID == sessionID || strings.HasPrefix(info.SessionID, sessionID) {
			return info.SessionID, nil
		}
	}
	return "", ErrNoSessions
}

// TranscriptPath locates the transcript.jsonl for a session id. Prefix
// matching is supported (e.g. the first 8 chars of a UUID). Returns false
// when no session matches.
func (s *Scanner) TranscriptPath(ctx context.Context, sessionID string) (string, bool) {
	if sessionID == MostRecentToken {
		recent, err := s.MostRecent(ctx)
		if err != nil {
			return "", false
		}
		sessionID = recent.SessionID
	}

	projects, err := os.ReadDir(s.rootDir)
	if err != nil {
		return "", false
	}
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}
		sessionsDir := filepath.Join(s.rootDir, project.Name(), "sessions")
		entries, err := os.ReadDir(sessionsDir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if entry.Name() != sessionID && !strings.HasPrefix(entry.Name(), sessionID) {
				continue
			}
			transcript := filepath.Join(sessionsDir, entry.Name(), "transcript.jsonl")
			if _, err := os.Stat(transcript); err == nil {
				return transcript, true
			}
		}
	}
	return "", false
}

// sessionMetadata is the subset of metadata.json the scanner reads.
type sessionMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// scan walks the transcript root and collects every root session.
func scan(rootDir string) ([]SessionInfo, error) {
	projects, err := os.ReadDir(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var results []SessionInfo
	for _, project := range projects {
		if !project.IsDir() {
			continue
		}

		projectPath := ReconstructProjectPath(project.Name())
		projectLabel := filepath.Base(projectPath)
		if projectLabel == "." || projectLabel == string(filepath.Separator) {
			projectLabel = project.Name()
		}

		sessionsDir := filepath.Join(rootDir, project.Name(), "sessions")
		entries, err := os.ReadDir(sessionsDir)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			// Sub-sessions carry "_" in the id; only root sessions are
			// resumable.
			if strings.Contains(entry.Name(), "_") {
				continue
			}
			transcript := filepath.Join(sessionsDir, entry.Name(), "transcript.jsonl")
			stat, err := os.Stat(transcript)
			if err != nil {
				continue
			}

			info := SessionInfo{
				SessionID:   entry.Name(),
				Project:     projectLabel,
				ProjectPath: projectPath,
				ModTime:     stat.ModTime(),
			}

			metaPath := filepath.Join(sessionsDir, entry.Name(), "metadata.json")
			if data, err := os.ReadFile(metaPath); err == nil { // #nosec G304 -- path built from scanned dir entries
				var meta sessionMetadata
				if err := json.Unmarshal(data, &meta); err == nil {
					info.Name = meta.Name
					info.Description = meta.Description
				} else {
					log.Debug(log.CatDiscovery, "unreadable session metadata", "path", metaPath)
				}
			}

			results = append(results, info)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ModTime.After(results[j].ModTime)
	})
	return results, nil
}
