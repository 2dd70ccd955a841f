package comms

type entry struct {
	round int
	value int
}

// Ledger remembers the last (round, value) pair received from each peer so a
// duplicated delivery is never counted twice.
type Ledger struct {
	last map[AgentID]entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{last: make(map[AgentID]entry)}
}

// Accept records (round, value) for the sender and reports whether it is new.
// An identical repeat of the last record returns false and changes nothing.
func (l *Ledger) Accept(from AgentID, round, value int) bool {
	e := entry{round: round, value: value}
	if prev, ok := l.last[from]; ok && prev == e {
		return false
	}
	l.last[from] = e
	return true
}

// Len is the number of peers heard from.
func (l *Ledger) Len() int {
	return len(l.last)
}

// Reset forgets every peer.
func (l *Ledger) Reset() {
	clear(l.last)
}
