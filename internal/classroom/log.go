package classroom

import (
	"time"

	"github.com/google/uuid"
)

const maxLogEntries = 200

// LogEntry is a single timestamped activity notice.
type LogEntry struct {
	ID   uuid.UUID
	Time time.Time
	Text string
}

// Log is the append-only activity log. Insertion order is display order;
// entries are never mutated, only the oldest are dropped past the cap.
type Log struct {
	entries []LogEntry
}

// Append adds a notice and caps the buffer.
func (l *Log) Append(text string) {
	l.entries = append(l.entries, LogEntry{
		ID:   uuid.New(),
		Time: time.Now(),
		Text: text,
	})
	if len(l.entries) > maxLogEntries {
		l.entries = l.entries[len(l.entries)-maxLogEntries:]
	}
}

// Entries returns a copy of the current entries, oldest first.
func (l *Log) Entries() []LogEntry {
	return append([]LogEntry(nil), l.entries...)
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Last returns the most recent entry, or a zero entry when empty.
func (l *Log) Last() LogEntry {
	if len(l.entries) == 0 {
		return LogEntry{}
	}
	return l.entries[len(l.entries)-1]
}
