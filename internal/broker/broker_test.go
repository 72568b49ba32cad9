package broker

import (
	"encoding/json"
	"testing"

	"github.com/syntaxarena/arena/internal/arena"
)

func TestBrokerDeliversToTopicOnly(t *testing.T) {
	b := New()
	mine := b.Subscribe(arena.PlayerTopic("p1"))
	other := b.Subscribe(arena.PlayerTopic("p2"))
	defer b.Unsubscribe(arena.PlayerTopic("p1"), mine)
	defer b.Unsubscribe(arena.PlayerTopic("p2"), other)

	b.Publish(arena.PlayerTopic("p1"), arena.Message{Type: arena.MsgJoinQueueAck, PlayerID: "p1"})

	select {
	case data := <-mine:
		var got arena.Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if got.Type != arena.MsgJoinQueueAck || got.PlayerID != "p1" {
			t.Errorf("got %+v", got)
		}
	default:
		t.Fatal("subscriber received nothing")
	}

	select {
	case data := <-other:
		t.Errorf("other topic received %s", data)
	default:
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := New()
	ch := b.Subscribe("arena/s1")

	for i := 0; i < 40; i++ {
		b.Publish("arena/s1", arena.Message{Type: arena.MsgOpponentProgress})
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered = %d, want %d", got, cap(ch))
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := New()
	a := b.Subscribe("arena/s1")
	c := b.Subscribe("arena/s1")

	b.Unsubscribe("arena/s1", a)
	if got := b.Subscribers("arena/s1"); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}
	b.Unsubscribe("arena/s1", c)
	if got := b.Subscribers("arena/s1"); got != 0 {
		t.Fatalf("subscribers = %d, want 0", got)
	}

	b.Publish("arena/s1", arena.Message{Type: arena.MsgGameEnd})
	if len(a) != 0 || len(c) != 0 {
		t.Error("unsubscribed channels still receive")
	}
}

type countingPublisher struct{ topics []string }

func (c *countingPublisher) Publish(topic string, _ arena.Message) {
	c.topics = append(c.topics, topic)
}

func TestFanout(t *testing.T) {
	a, c := &countingPublisher{}, &countingPublisher{}
	f := Fanout{a, c}

	f.Publish("arena/s1", arena.Message{Type: arena.MsgGameEnd})

	for i, p := range []*countingPublisher{a, c} {
		if len(p.topics) != 1 || p.topics[0] != "arena/s1" {
			t.Errorf("publisher %d got %v", i, p.topics)
		}
	}
}
