// Package db provides the SQLite-backed conversation history store.
//
// A conversation is a named, timestamped list of transcript phrases. It is
// written once and never updated. It can be read back by ID at any time,
// or listed when it falls inside the recent-history window.
package db

import "time"

// Conversation is a saved transcript.
type Conversation struct {
	ID      int64     `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	Date    time.Time `json:"date" yaml:"date"`
	Phrases []string  `json:"phrases" yaml:"phrases"`
}

// dateLayout is the on-disk ISO-8601 form. It is fixed width and always UTC,
// so comparing the column as text orders rows chronologically.
const dateLayout = "2006-01-02T15:04:05.000Z"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
