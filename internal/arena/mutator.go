package arena

import "time"

// Mutator applies player events to stored sessions. Every transition to
// COMPLETED is a check-and-set on status under the session's own lock, so of
// a winning submit and a timeout racing on one session exactly one applies.
type Mutator struct {
	store *Store
	now   func() time.Time
}

func NewMutator(store *Store) *Mutator {
	return &Mutator{store: store, now: time.Now}
}

// ProgressResult is the outcome of an accepted progress update.
type ProgressResult struct {
	Session Session
	Player  Player
}

// SubmitResult is the outcome of a recorded submission. Won is true only for
// the single submission that completed the session.
type SubmitResult struct {
	Session Session
	Player  Player
	Won     bool
}

// TimeoutResult is the outcome of a timeout that completed the session.
type TimeoutResult struct {
	Session  Session
	WinnerID string
}

// UpdateProgress overwrites the player's progress fields while the session is
// ACTIVE. Late updates on a completed session are dropped.
func (m *Mutator) UpdateProgress(sessionID, playerID string, progress, testsPassed, totalTests int) (ProgressResult, error) {
	var player Player
	sess, err := m.store.update(sessionID, func(s *Session) error {
		p, err := activeMember(s, playerID)
		if err != nil {
			return err
		}
		p.Progress = clampProgress(progress)
		p.TestsPassed = testsPassed
		p.TotalTests = totalTests
		player = *p
		return nil
	})
	if err != nil {
		return ProgressResult{}, err
	}
	return ProgressResult{Session: sess, Player: player}, nil
}

// Submit records a solution attempt. A fully passing attempt on an ACTIVE
// session makes the submitter the winner and completes the session.
func (m *Mutator) Submit(sessionID, playerID string, allPassed bool, testsPassed, totalTests int) (SubmitResult, error) {
	var (
		player Player
		won    bool
	)
	sess, err := m.store.update(sessionID, func(s *Session) error {
		p, err := activeMember(s, playerID)
		if err != nil {
			return err
		}

		now := m.now()
		p.Submitted = true
		p.SubmitTime = now
		p.TestsPassed = testsPassed
		p.TotalTests = totalTests
		if allPassed {
			p.Progress = 100
		} else {
			p.Progress = clampProgress(testsPassed * 100 / max(totalTests, 1))
		}
		player = *p

		if allPassed {
			complete(s, playerID, ReasonSolved, now)
			won = true
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Session: sess, Player: player, Won: won}, nil
}

// HandleTimeout completes the session in favour of the player with strictly
// higher progress. A tie leaves no winner.
func (m *Mutator) HandleTimeout(sessionID string) (TimeoutResult, error) {
	var winner string
	sess, err := m.store.update(sessionID, func(s *Session) error {
		if s.Status == StatusCompleted {
			return ErrSessionCompleted
		}
		winner = leader(s.Players)
		complete(s, winner, ReasonTimeout, m.now())
		return nil
	})
	if err != nil {
		return TimeoutResult{}, err
	}
	return TimeoutResult{Session: sess, WinnerID: winner}, nil
}

// Cleanup removes the session and its index entries. Repeated calls are
// no-ops.
func (m *Mutator) Cleanup(sessionID string) bool {
	return m.store.Remove(sessionID)
}

func activeMember(s *Session, playerID string) (*Player, error) {
	switch s.Status {
	case StatusCompleted:
		return nil, ErrSessionCompleted
	case StatusActive:
	default:
		return nil, ErrSessionNotActive
	}
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return &s.Players[i], nil
		}
	}
	return nil, ErrNotInSession
}

func complete(s *Session, winnerID string, reason EndReason, at time.Time) {
	s.Status = StatusCompleted
	s.WinnerID = winnerID
	s.EndReason = reason
	s.EndTime = at
}

func leader(players []Player) string {
	var (
		best string
		top  = -1
		tied bool
	)
	for _, p := range players {
		switch {
		case p.Progress > top:
			best, top, tied = p.ID, p.Progress, false
		case p.Progress == top:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return best
}

func clampProgress(v int) int {
	return min(max(v, 0), 100)
}
