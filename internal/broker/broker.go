// Package broker delivers arena messages to listeners: in-process
// subscribers (websocket and SSE connections), Redis channels and a Kafka
// topic.
package broker

import (
	"encoding/json"
	"sync"

	"github.com/syntaxarena/arena/internal/arena"
)

// Broker is an in-process pub/sub for arena messages, keyed by topic.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func New() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded messages for topic.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan []byte]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// Publish sends msg to all subscribers of topic.
func (b *Broker) Publish(topic string, msg arena.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	b.mu.RLock()
	for ch := range b.subs[topic] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports how many channels listen on topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Fanout publishes every message to each of its publishers in order.
type Fanout []arena.Publisher

func (f Fanout) Publish(topic string, msg arena.Message) {
	for _, p := range f {
		p.Publish(topic, msg)
	}
}
