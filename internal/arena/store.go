package arena

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// liveSession is the authoritative state of one battle. Its mutex is the only
// lock taken when a session changes, so unrelated battles never contend.
type liveSession struct {
	mu      sync.Mutex
	session Session
}

// Store owns live sessions and the player to session index. The store lock
// covers membership and the index; session fields are guarded per session.
// Lock order is store then session, never the reverse.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*liveSession
	byPlayer map[string]string

	duration time.Duration
	now      func() time.Time
}

func NewStore(duration time.Duration) *Store {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Store{
		sessions: make(map[string]*liveSession),
		byPlayer: make(map[string]string),
		duration: duration,
		now:      time.Now,
	}
}

// Create starts an ACTIVE session for a and b and indexes both players.
func (s *Store) Create(problem Problem, a, b Player) (Session, error) {
	if a.ID == b.ID {
		return Session{}, fmt.Errorf("%w: %s paired with itself", ErrDuplicatePlayer, a.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range []Player{a, b} {
		if s.liveLocked(p.ID) {
			return Session{}, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.ID)
		}
	}

	now := s.now()
	sess := Session{
		ID:                 uuid.NewString(),
		ProblemID:          problem.ID,
		ProblemTitle:       problem.Title,
		ProblemDescription: problem.Description,
		Examples:           append([]string(nil), problem.Examples...),
		StarterCode:        problem.StarterCode,
		Difficulty:         problem.Difficulty,
		Players:            []Player{fresh(a), fresh(b)},
		StartTime:          now,
		Duration:           s.duration,
		DurationSeconds:    int(s.duration / time.Second),
		Status:             StatusActive,
	}

	s.sessions[sess.ID] = &liveSession{session: sess}
	s.byPlayer[a.ID] = sess.ID
	s.byPlayer[b.ID] = sess.ID
	return sess.clone(), nil
}

func (s *Store) Get(sessionID string) (Session, bool) {
	ls := s.lookup(sessionID)
	if ls == nil {
		return Session{}, false
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.session.clone(), true
}

func (s *Store) GetByPlayer(playerID string) (Session, bool) {
	s.mu.RLock()
	id, ok := s.byPlayer[playerID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, false
	}
	return s.Get(id)
}

// Live reports whether playerID is mapped to a session that has not completed.
func (s *Store) Live(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveLocked(playerID)
}

// Remove deletes the session and unmaps its players. Removing an unknown id
// is a no-op that reports false.
func (s *Store) Remove(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	delete(s.sessions, sessionID)

	ls.mu.Lock()
	players := ls.session.Players
	ls.mu.Unlock()

	for _, p := range players {
		// A newer session may already own the mapping.
		if s.byPlayer[p.ID] == sessionID {
			delete(s.byPlayer, p.ID)
		}
	}
	return true
}

// Sessions returns copies of every stored session.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	live := make([]*liveSession, 0, len(s.sessions))
	for _, ls := range s.sessions {
		live = append(live, ls)
	}
	s.mu.RUnlock()

	out := make([]Session, 0, len(live))
	for _, ls := range live {
		ls.mu.Lock()
		out = append(out, ls.session.clone())
		ls.mu.Unlock()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// update runs fn against the live session while holding only that session's
// lock and returns a copy of the result.
func (s *Store) update(sessionID string, fn func(*Session) error) (Session, error) {
	ls := s.lookup(sessionID)
	if ls == nil {
		return Session{}, ErrSessionNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	err := fn(&ls.session)
	return ls.session.clone(), err
}

func (s *Store) lookup(sessionID string) *liveSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

func (s *Store) liveLocked(playerID string) bool {
	id, ok := s.byPlayer[playerID]
	if !ok {
		return false
	}
	ls, ok := s.sessions[id]
	if !ok {
		return false
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.session.Status != StatusCompleted
}

// fresh strips battle state a queued player may carry from an earlier match.
func fresh(p Player) Player {
	return Player{
		ID:       p.ID,
		Username: p.Username,
		Rating:   p.Rating,
		Ready:    p.Ready,
	}
}
