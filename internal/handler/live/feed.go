package live

import (
	"encoding/json"

	"github.com/syntaxarena/arena/internal/arena"
)

// Broker is the subscription side of *broker.Broker.
type Broker interface {
	Subscribe(topic string) chan []byte
	Unsubscribe(topic string, ch chan []byte)
}

type envelope struct {
	Type      arena.MessageType `json:"type"`
	SessionID string            `json:"sessionId"`
}

// feed merges a player's own topic with the topic of the session they are
// playing. It is owned by a single goroutine.
type feed struct {
	broker    Broker
	playerID  string
	player    chan []byte
	sessionID string
	session   chan []byte
}

func newFeed(b Broker, playerID string) *feed {
	return &feed{
		broker:   b,
		playerID: playerID,
		player:   b.Subscribe(arena.PlayerTopic(playerID)),
	}
}

// follow switches the session subscription to sessionID.
func (f *feed) follow(sessionID string) {
	if sessionID == "" || sessionID == f.sessionID {
		return
	}
	if f.session != nil {
		f.broker.Unsubscribe(arena.SessionTopic(f.sessionID), f.session)
	}
	f.sessionID = sessionID
	f.session = f.broker.Subscribe(arena.SessionTopic(sessionID))
}

// observe inspects an outgoing message and returns its type. A match
// announcement moves the feed onto the new session.
func (f *feed) observe(data []byte) arena.MessageType {
	env := peek(data)
	if env.Type == arena.MsgMatchFound {
		f.follow(env.SessionID)
	}
	return env.Type
}

func peek(data []byte) envelope {
	var env envelope
	_ = json.Unmarshal(data, &env)
	return env
}

func (f *feed) close() {
	f.broker.Unsubscribe(arena.PlayerTopic(f.playerID), f.player)
	if f.session != nil {
		f.broker.Unsubscribe(arena.SessionTopic(f.sessionID), f.session)
	}
}
