// File: internal/comms/protocol.go
// Description: Range-limited message exchange between agents. A round produces
// an explicit batch of (sender, receiver, payload) messages which the driver
// delivers before the next round's movement begins.

package comms

// AgentID is the stable identity of an agent within a single run.
type AgentID int

// Position is a grid cell coordinate.
type Position struct {
	X int
	Y int
}

// PayloadKind tells the receiver how to interpret a Payload.
type PayloadKind int

const (
	// KindObservation carries a raw 0/1 sample (or a decision standing in for one).
	KindObservation PayloadKind = iota
	// KindBelief carries raw Beta parameters during benchmark gossip.
	KindBelief
)

func (k PayloadKind) String() string {
	switch k {
	case KindObservation:
		return "observation"
	case KindBelief:
		return "belief"
	default:
		return "unknown"
	}
}

// Payload is the content of a single message.
type Payload struct {
	Kind  PayloadKind
	Value int
	Alpha float64
	Beta  float64
}

// Observation builds an observation payload.
func Observation(value int) Payload {
	return Payload{Kind: KindObservation, Value: value}
}

// Belief builds a belief-parameter payload.
func Belief(alpha, beta float64) Payload {
	return Payload{Kind: KindBelief, Alpha: alpha, Beta: beta}
}

// Message is one delivery from one agent to another within a round.
type Message struct {
	From    AgentID
	To      AgentID
	Round   int
	Payload Payload
}

// Publisher is anything that may have something to say this round.
type Publisher interface {
	// Publish returns the payload to broadcast and whether there is one.
	Publish() (Payload, bool)
}

// Receiver consumes messages addressed to it.
type Receiver interface {
	Receive(msg Message)
}

// Sender pairs an agent's identity and end-of-round position with its publisher.
type Sender struct {
	ID        AgentID
	Pos       Position
	Publisher Publisher
}

// Chebyshev returns the coordinate-wise maximum distance between two cells.
func Chebyshev(a, b Position) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// InRange reports whether two cells are strictly closer than radius.
func InRange(a, b Position, radius int) bool {
	return Chebyshev(a, b) < radius
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Protocol holds the communication radius.
type Protocol struct {
	Radius int
}

// NewProtocol returns a protocol with the given radius. A radius of 2 gives
// the one-cell-wide 8-neighbourhood.
func NewProtocol(radius int) *Protocol {
	return &Protocol{Radius: radius}
}

// Exchange builds the batch of messages for a round. Senders are visited in
// slice order and receivers likewise, so the batch order is deterministic.
// Publish is called once per sender, before any message is delivered.
func (p *Protocol) Exchange(round int, senders []Sender) []Message {
	var batch []Message
	for i, s := range senders {
		payload, ok := s.Publisher.Publish()
		if !ok {
			continue
		}
		for j, r := range senders {
			if i == j {
				continue
			}
			if !InRange(s.Pos, r.Pos, p.Radius) {
				continue
			}
			batch = append(batch, Message{From: s.ID, To: r.ID, Round: round, Payload: payload})
		}
	}
	return batch
}

// Deliver hands every message of a batch to its receiver. Messages addressed
// to an unknown agent are dropped and counted.
func Deliver(batch []Message, lookup func(AgentID) (Receiver, bool)) (delivered, dropped int) {
	for _, msg := range batch {
		r, ok := lookup(msg.To)
		if !ok {
			dropped++
			continue
		}
		r.Receive(msg)
		delivered++
	}
	return delivered, dropped
}
