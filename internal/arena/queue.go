package arena

import "sync"

// Queue holds players waiting for an opponent in arrival order. A player id
// appears at most once.
type Queue struct {
	mu      sync.Mutex
	players []Player
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends p at the tail, dropping any earlier entry for the same id.
// Re-joining therefore moves a player to the back.
func (q *Queue) Enqueue(p Player) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(p.ID)
	q.players = append(q.players, p)
}

// DequeuePair removes and returns the two longest-waiting players. With fewer
// than two entries it reports false and leaves the queue untouched.
func (q *Queue) DequeuePair() (Player, Player, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.players) < 2 {
		return Player{}, Player{}, false
	}

	a, b := q.players[0], q.players[1]
	q.players = append(q.players[:0:0], q.players[2:]...)
	return a, b, true
}

// Requeue puts dequeued players back at the head in the given order.
// Players that joined again in the meantime keep their newer entry.
func (q *Queue) Requeue(players ...Player) {
	q.mu.Lock()
	defer q.mu.Unlock()

	head := make([]Player, 0, len(players))
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if seen[p.ID] || q.indexLocked(p.ID) >= 0 {
			continue
		}
		seen[p.ID] = true
		head = append(head, p)
	}
	q.players = append(head, q.players...)
}

// Remove drops the entry for playerID and reports whether one existed.
func (q *Queue) Remove(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.removeLocked(playerID)
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.players)
}

func (q *Queue) Contains(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.indexLocked(playerID) >= 0
}

// Position returns the 1-based position of playerID, or 0 if absent.
func (q *Queue) Position(playerID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.indexLocked(playerID) + 1
}

func (q *Queue) indexLocked(playerID string) int {
	for i, p := range q.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (q *Queue) removeLocked(playerID string) bool {
	i := q.indexLocked(playerID)
	if i < 0 {
		return false
	}
	q.players = append(q.players[:i], q.players[i+1:]...)
	return true
}
