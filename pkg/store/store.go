// Package store keeps the ordered, append-only chat log and persists it as
// a full JSON snapshot per identity. Every successful mutation rewrites the
// snapshot so a subsequent Load always observes exactly the in-memory log.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/lenaai/lenachat/pkg/logger"
)

// Store owns the message log and the id counter for one identity at a
// time. All mutators are safe for concurrent use; appends are always
// relative to the current log, never snapshot-and-overwrite, so turns that
// settle out of order cannot lose each other's messages.
type Store struct {
	mu       sync.Mutex
	dir      string
	identity string
	msgs     []Message
	nextID   int
	memOnly  bool
}

func New(stateDir string) *Store {
	return &Store{dir: stateDir, nextID: 1}
}

func (s *Store) snapshotPath(identity string) string {
	return filepath.Join(s.dir, "chat_"+identity+".json")
}

// Load reads the persisted log for the identity and reseeds the id counter
// to max(seen ids)+1. A missing or corrupt snapshot yields an empty log;
// corrupt payloads are logged and discarded, never returned as an error.
func (s *Store) Load(identity string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = identity
	s.msgs = nil
	s.nextID = 1

	data, err := os.ReadFile(s.snapshotPath(identity))
	if err != nil {
		return nil
	}

	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		logger.WarnCF("store", "Discarding corrupt chat snapshot", map[string]interface{}{
			"identity": identity,
			"error":    err.Error(),
		})
		return nil
	}

	s.msgs = msgs
	for _, m := range msgs {
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}

	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Append adds messages to the log in order and rewrites the snapshot.
func (s *Store) Append(msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = append(s.msgs, msgs...)
	s.persist()
}

// Clear empties the log, removes the snapshot and resets the id counter so
// the next message gets id 1.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = nil
	s.nextID = 1
	if s.identity != "" {
		if err := os.Remove(s.snapshotPath(s.identity)); err != nil && !os.IsNotExist(err) {
			logger.WarnCF("store", "Failed to remove chat snapshot", map[string]interface{}{
				"identity": s.identity,
				"error":    err.Error(),
			})
		}
	}
}

// SetIdentity points the store at a new identity without loading anything,
// used after a clear regenerates the visitor number.
func (s *Store) SetIdentity(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
}

// NextID returns the next message id and increments the counter.
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id
}

// Messages returns a copy of the current log.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// persist rewrites the full snapshot. Caller holds the lock.
func (s *Store) persist() {
	if s.identity == "" || s.memOnly {
		return
	}
	data, err := json.MarshalIndent(s.msgs, "", "  ")
	if err != nil {
		logger.ErrorCF("store", "Failed to encode chat snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.disablePersistence(err)
		return
	}
	if err := os.WriteFile(s.snapshotPath(s.identity), data, 0644); err != nil {
		s.disablePersistence(err)
	}
}

func (s *Store) disablePersistence(err error) {
	s.memOnly = true
	logger.WarnCF("store", fmt.Sprintf("Persistence unavailable, chat log is memory-only: %v", err), map[string]interface{}{
		"dir": s.dir,
	})
}
