package broker

import (
	"encoding/json"
	"testing"

	"github.com/syntaxarena/arena/internal/arena"
)

func TestEncodeKafka(t *testing.T) {
	m, err := encodeKafka("arena/s1", arena.Message{
		Type:      arena.MsgGameEnd,
		SessionID: "s1",
		Payload:   arena.GameEnd{Reason: arena.ReasonTimeout},
	})
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}

	if string(m.Key) != "arena/s1" {
		t.Errorf("key = %q, want arena/s1", m.Key)
	}
	if len(m.Headers) != 1 || m.Headers[0].Key != "type" || string(m.Headers[0].Value) != "GAME_END" {
		t.Errorf("headers = %+v", m.Headers)
	}

	var body struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		Payload   struct {
			WinnerID *string `json:"winnerId"`
			Reason   string  `json:"reason"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(m.Value, &body); err != nil {
		t.Fatalf("decoding value: %v", err)
	}
	if body.Type != "GAME_END" || body.SessionID != "s1" || body.Payload.Reason != "TIMEOUT" {
		t.Errorf("value = %s", m.Value)
	}
	if body.Payload.WinnerID != nil {
		t.Errorf("winnerId = %q, want null", *body.Payload.WinnerID)
	}
}
