// Package storage writes the optional session journal: an append-only record
// of what happened in each session. It is never read back into a store.
package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dohr-michael/duet/internal/events"
)

// Journal appends bus events to JSONL files, one per session.
type Journal struct {
	dir         string
	unsubscribe func()
}

// NewJournal subscribes to every bus event and writes it under dir.
func NewJournal(dir string, bus *events.Bus) *Journal {
	j := &Journal{dir: dir}
	j.unsubscribe = bus.Subscribe(j.handleEvent)
	return j
}

// Close unsubscribes the journal from the event bus.
func (j *Journal) Close() {
	if j.unsubscribe != nil {
		j.unsubscribe()
	}
}

func (j *Journal) handleEvent(e events.Event) {
	// Snapshots repeat what the mutation events already say.
	if e.Type == events.EventStateChanged {
		return
	}
	if err := j.write(e); err != nil {
		slog.Warn("journal write", "session", e.SessionID, "error", err)
	}
}

func (j *Journal) write(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path := j.Path(e.SessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// Path returns the file holding the events of sessionID.
func (j *Journal) Path(sessionID string) string {
	if sessionID == "" {
		return filepath.Join(j.dir, "_global.jsonl")
	}
	return filepath.Join(j.dir, sessionID+".jsonl")
}
