// Package arena coordinates 1v1 coding battles: the waiting queue, the live
// session store, pairing, session state transitions and the notifications
// they produce. All state is in memory and owned by an Engine.
package arena

import (
	"errors"
	"time"
)

var (
	// ErrSessionNotFound is returned when a session id does not resolve.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNotInSession is returned when a player is not one of the session members.
	ErrNotInSession = errors.New("player not in session")
	// ErrSessionCompleted is returned for mutations that arrive after the
	// session reached its terminal state. Nothing is changed.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrSessionNotActive is returned for player events on a session that has
	// not started yet.
	ErrSessionNotActive = errors.New("session not active")
	// ErrDuplicatePlayer signals that a player is already mapped to a live
	// session. It indicates a queue/store coordination bug.
	ErrDuplicatePlayer = errors.New("player already in a live session")
)

const DefaultDuration = 900 * time.Second

type Status string

const (
	StatusWaiting   Status = "WAITING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

type EndReason string

const (
	ReasonSolved  EndReason = "SOLVED"
	ReasonTimeout EndReason = "TIMEOUT"
)

type Player struct {
	ID          string    `json:"playerId"`
	Username    string    `json:"username"`
	Rating      int       `json:"rating"`
	Progress    int       `json:"progress"`
	TestsPassed int       `json:"testsPassed"`
	TotalTests  int       `json:"totalTests"`
	Submitted   bool      `json:"submitted"`
	SubmitTime  time.Time `json:"submitTime,omitzero"`
	Ready       bool      `json:"ready"`
}

// Problem is the coding exercise shown to both players of a session.
type Problem struct {
	ID          string   `json:"problemId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
	StarterCode string   `json:"starterCode,omitempty"`
	Difficulty  string   `json:"difficulty"`
}

// Session is a point-in-time copy of one battle. Values handed out by the
// store never alias the live state.
type Session struct {
	ID                 string        `json:"sessionId"`
	ProblemID          string        `json:"problemId"`
	ProblemTitle       string        `json:"problemTitle"`
	ProblemDescription string        `json:"problemDescription"`
	Examples           []string      `json:"examples,omitempty"`
	StarterCode        string        `json:"starterCode,omitempty"`
	Difficulty         string        `json:"difficulty"`
	Players            []Player      `json:"players"`
	StartTime          time.Time     `json:"startTime"`
	Duration           time.Duration `json:"-"`
	DurationSeconds    int           `json:"durationSeconds"`
	WinnerID           string        `json:"winnerId,omitempty"`
	Status             Status        `json:"status"`
	EndReason          EndReason     `json:"endReason,omitempty"`
	EndTime            time.Time     `json:"endTime,omitzero"`
}

// Player returns the member with the given id.
func (s Session) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Opponent returns the member that is not id.
func (s Session) Opponent(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID != id {
			return p, true
		}
	}
	return Player{}, false
}

// Deadline is when the session times out on its own.
func (s Session) Deadline() time.Time {
	return s.StartTime.Add(s.Duration)
}

func (s Session) clone() Session {
	c := s
	c.Players = append([]Player(nil), s.Players...)
	c.Examples = append([]string(nil), s.Examples...)
	return c
}
