package arena

type MessageType string

const (
	MsgJoinQueueAck     MessageType = "JOIN_QUEUE_ACK"
	MsgLeaveQueueAck    MessageType = "LEAVE_QUEUE_ACK"
	MsgMatchFound       MessageType = "MATCH_FOUND"
	MsgOpponentProgress MessageType = "OPPONENT_PROGRESS"
	MsgGameEnd          MessageType = "GAME_END"
	MsgError            MessageType = "ERROR"
)

// Message is one outbound notification. It is never persisted or retried.
type Message struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	PlayerID  string      `json:"playerId,omitempty"`
	Payload   any         `json:"payload,omitempty"`
}

type QueueStatus struct {
	QueuePosition int    `json:"queuePosition"`
	Status        string `json:"status"`
}

type LeaveStatus struct {
	Status  string `json:"status"`
	Removed bool   `json:"removed"`
}

type OpponentProgress struct {
	OpponentProgress    int  `json:"opponentProgress"`
	OpponentTestsPassed int  `json:"opponentTestsPassed"`
	OpponentTotalTests  int  `json:"opponentTotalTests"`
	OpponentSubmitted   bool `json:"opponentSubmitted,omitempty"`
}

// GameEnd carries a null winnerId when a timeout ends in a tie.
type GameEnd struct {
	WinnerID *string   `json:"winnerId"`
	Reason   EndReason `json:"reason"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

// Publisher delivers a message to everyone listening on topic. Delivery is
// fire-and-forget.
type Publisher interface {
	Publish(topic string, msg Message)
}

func SessionTopic(sessionID string) string { return "arena/" + sessionID }

func PlayerTopic(playerID string) string { return "player/" + playerID }

// Notifier turns engine results into published messages. It is the only
// place that decides who hears about what.
type Notifier struct {
	pub Publisher
}

func NewNotifier(pub Publisher) *Notifier {
	return &Notifier{pub: pub}
}

func (n *Notifier) Queued(playerID string, queueSize int) {
	n.pub.Publish(PlayerTopic(playerID), Message{
		Type:     MsgJoinQueueAck,
		PlayerID: playerID,
		Payload:  QueueStatus{QueuePosition: queueSize, Status: "SEARCHING"},
	})
}

func (n *Notifier) Left(playerID string, removed bool) {
	n.pub.Publish(PlayerTopic(playerID), Message{
		Type:     MsgLeaveQueueAck,
		PlayerID: playerID,
		Payload:  LeaveStatus{Status: "LEFT_QUEUE", Removed: removed},
	})
}

// MatchFound goes to the session topic and to each player directly, since
// neither player is subscribed to the session yet.
func (n *Notifier) MatchFound(s Session) {
	msg := Message{Type: MsgMatchFound, SessionID: s.ID, Payload: s}
	n.pub.Publish(SessionTopic(s.ID), msg)
	for _, p := range s.Players {
		n.pub.Publish(PlayerTopic(p.ID), msg)
	}
}

// Resume re-sends MATCH_FOUND to a player who asked to queue while still in
// a live session, e.g. after reconnecting.
func (n *Notifier) Resume(playerID string, s Session) {
	n.pub.Publish(PlayerTopic(playerID), Message{Type: MsgMatchFound, SessionID: s.ID, Payload: s})
}

// Progress tells the sender's opponent, never the sender.
func (n *Notifier) Progress(s Session, sender Player) {
	n.toOpponent(s, sender, false)
}

// Submitted tells the opponent about a submission that did not win.
func (n *Notifier) Submitted(s Session, sender Player) {
	n.toOpponent(s, sender, true)
}

func (n *Notifier) GameEnd(s Session) {
	end := GameEnd{Reason: s.EndReason}
	if s.WinnerID != "" {
		w := s.WinnerID
		end.WinnerID = &w
	}
	n.pub.Publish(SessionTopic(s.ID), Message{
		Type:      MsgGameEnd,
		SessionID: s.ID,
		PlayerID:  s.WinnerID,
		Payload:   end,
	})
}

func (n *Notifier) toOpponent(s Session, sender Player, submitted bool) {
	opp, ok := s.Opponent(sender.ID)
	if !ok {
		return
	}
	n.pub.Publish(PlayerTopic(opp.ID), Message{
		Type:      MsgOpponentProgress,
		SessionID: s.ID,
		PlayerID:  sender.ID,
		Payload: OpponentProgress{
			OpponentProgress:    sender.Progress,
			OpponentTestsPassed: sender.TestsPassed,
			OpponentTotalTests:  sender.TotalTests,
			OpponentSubmitted:   submitted,
		},
	})
}
