package services

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"media-search-platform/internal/logger"
	"media-search-platform/models"
)

type sessionEntry struct {
	segment     models.Segment
	lastTouched time.Time
}

type session struct {
	mu      sync.Mutex
	entries []*sessionEntry
}

// SessionStore holds transient segments per session, expiring entries that
// have not been touched within the TTL. Mutation of one session is serialized
// by that session's own lock; different sessions never contend.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ttl       time.Duration
	scheduler *gocron.Scheduler
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
	}
}

// StartSweeper schedules the expiry sweep at a period equal to the TTL, so an
// entry lives at most 2*TTL and at least TTL after its last touch.
func (s *SessionStore) StartSweeper() error {
	sched := gocron.NewScheduler(time.UTC)
	if _, err := sched.Every(s.ttl).Do(func() {
		removed := s.sweep(time.Now())
		if removed > 0 {
			logger.Info("session sweep", "removed_entries", removed)
		}
	}); err != nil {
		return err
	}
	sched.StartAsync()
	s.scheduler = sched
	return nil
}

func (s *SessionStore) StopSweeper() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *SessionStore) get(sessionID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

func (s *SessionStore) getOrCreate(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// Add inserts a segment into the session. If an entry with exactly the same
// text already exists, its freshness is refreshed instead and Add returns
// false.
func (s *SessionStore) Add(sessionID string, seg models.Segment) bool {
	if sessionID == "" || seg.Text == "" {
		return false
	}

	sess := s.getOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	for _, e := range sess.entries {
		if e.segment.Text == seg.Text {
			e.lastTouched = time.Now()
			return false
		}
	}

	sess.entries = append(sess.entries, &sessionEntry{segment: seg, lastTouched: time.Now()})
	return true
}

// ContainsText reports whether the session already holds an entry with this
// exact text. A hit refreshes the entry's freshness; callers use this to skip
// the embedding call for duplicate uploads.
func (s *SessionStore) ContainsText(sessionID, text string) bool {
	if sessionID == "" || text == "" {
		return false
	}
	sess, ok := s.get(sessionID)
	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, e := range sess.entries {
		if e.segment.Text == text {
			e.lastTouched = time.Now()
			return true
		}
	}
	return false
}

// All returns the session's segments in insertion order.
func (s *SessionStore) All(sessionID string) []models.Segment {
	sess, ok := s.get(sessionID)
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]models.Segment, 0, len(sess.entries))
	for _, e := range sess.entries {
		out = append(out, e.segment)
	}
	return out
}

// Documents lists the session's sources with a text snippet each.
func (s *SessionStore) Documents(sessionID string, snippetLen int) []models.DocumentInfo {
	sess, ok := s.get(sessionID)
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]models.DocumentInfo, 0, len(sess.entries))
	for _, e := range sess.entries {
		out = append(out, models.DocumentInfo{
			SourceName: e.segment.SourceName,
			Snippet:    models.Snippet(e.segment.Text, snippetLen),
		})
	}
	return out
}

// sweep removes entries last touched before now-ttl and drops sessions left
// empty. Returns the number of entries removed.
func (s *SessionStore) sweep(now time.Time) int {
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		sess, ok := s.get(id)
		if !ok {
			continue
		}

		sess.mu.Lock()
		kept := sess.entries[:0]
		for _, e := range sess.entries {
			if e.lastTouched.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		sess.entries = kept
		empty := len(sess.entries) == 0
		sess.mu.Unlock()

		if empty {
			s.mu.Lock()
			// Re-check under the map lock: a concurrent Add may have
			// repopulated the session since we released its lock.
			if cur, ok := s.sessions[id]; ok && cur == sess {
				cur.mu.Lock()
				if len(cur.entries) == 0 {
					delete(s.sessions, id)
				}
				cur.mu.Unlock()
			}
			s.mu.Unlock()
		}
	}
	return removed
}
