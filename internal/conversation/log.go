package conversation

import (
	"sync"

	"parley/internal/domain"
)

// Log is the ordered, append-only record of user/AI exchanges. It is both
// the display history and the conversational context sent with each new
// response request.
type Log struct {
	mu      sync.Mutex
	entries []domain.ConversationEntry
}

func NewLog() *Log {
	return &Log{}
}

// Append records one completed exchange.
func (l *Log) Append(entry domain.ConversationEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Snapshot returns a copy of the history in append order.
func (l *Log) Snapshot() []domain.ConversationEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.ConversationEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded exchanges.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset clears the history for a fresh interaction.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
