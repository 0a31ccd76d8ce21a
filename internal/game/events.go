package game

// Event types published by the ledger.
const (
	EventRoomCreated    = "roomCreated"
	EventPlayerJoined   = "playerJoined"
	EventDecisionMade   = "decisionMade"
	EventRoomResolved   = "roomResolved"
	EventFundsWithdrawn = "fundsWithdrawn"
)

// Event is a flat, JSON-ready record of one ledger transition. It carries
// enough state for consumers (feed, history) to follow a room without
// reading the ledger back.
type Event struct {
	Type     string `json:"type"`
	RoomID   uint64 `json:"roomId,omitempty"`
	Player   string `json:"player,omitempty"`
	Decision string `json:"decision,omitempty"`
	Stake    int64  `json:"stake,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
	Time     int64  `json:"time,omitempty"` // unix seconds
}

// Sink receives events. Publish is called with the ledger lock held, so
// implementations must not call back into the ledger and must not block.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Publish(e Event) {
	for _, s := range m {
		s.Publish(e)
	}
}
