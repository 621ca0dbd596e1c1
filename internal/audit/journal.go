// Package audit persists intrusion events to an append-only JSONL journal.
// The journal is fire-and-forget from the gate's perspective: a write failure
// is logged and never blocks the rejection path.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

type Entry struct {
	RejectedID    string    `json:"rejected_id"`
	SenderName    string    `json:"sender_name,omitempty"`
	AttemptedText string    `json:"attempted_text"`
	Timestamp     time.Time `json:"timestamp"`
}

type Journal struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

func NewJournal(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	return &Journal{
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Record appends one entry. The file lock guards against a second process
// (e.g. an operator tailing tooling) interleaving writes mid-line.
func (j *Journal) Record(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.lock.Lock(); err != nil {
		return fmt.Errorf("acquire audit lock: %w", err)
	}
	defer j.lock.Unlock()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Entries reads the journal back, oldest first. Used by tests and tooling.
func (j *Journal) Entries() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit journal: %w", err)
	}

	var entries []Entry
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return entries, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
