// Package memory provides persistent travel memory storage.
//
// Each memory is one JSON file under the store directory, named after
// its key. The format is stable and human-inspectable: travelers can
// read and edit their own stored preferences between sessions.
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound is returned when a key has no stored memory.
var ErrNotFound = errors.New("memory not found")

// NotFoundError reports a missing key. Its message is surfaced
// verbatim to the model, which uses it to decide whether to ask the
// traveler or store fresh data.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return "No memory found for key: " + e.Key
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Entry is one stored memory.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// Summary is a listing row for one stored memory.
type Summary struct {
	Key       string `json:"key"`
	Timestamp string `json:"timestamp"`
	Preview   string `json:"preview"`
}

// Store persists memories as one JSON file per key.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a memory store rooted at dir. The directory is
// created on first write, not here, so a read-only workspace can still
// list an empty store.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// validKey rejects keys that would escape the store directory or
// produce unusable filenames.
func validKey(key string) error {
	if key == "" {
		return errors.New("memory key is empty")
	}
	if strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return fmt.Errorf("invalid memory key %q", key)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Store saves data under key, overwriting any previous entry.
// Returns the timestamp recorded in the entry.
func (s *Store) Store(key string, data any) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create memory dir: %w", err)
	}

	entry := Entry{
		Timestamp: s.now().Format(time.RFC3339),
		Data:      data,
	}
	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal memory %q: %w", key, err)
	}

	// Write to a temp file and rename so a crash mid-write never
	// leaves a truncated memory behind.
	tmp, err := os.CreateTemp(s.dir, "."+key+".*")
	if err != nil {
		return "", fmt.Errorf("write memory %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write memory %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write memory %q: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("write memory %q: %w", key, err)
	}

	return entry.Timestamp, nil
}

// Retrieve loads the memory stored under key. A missing key returns an
// error wrapping ErrNotFound.
func (s *Store) Retrieve(key string) (*Entry, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("read memory %q: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode memory %q: %w", key, err)
	}
	return &entry, nil
}

// List returns summaries of all stored memories, newest first.
// Unreadable files are skipped rather than failing the whole listing.
func (s *Store) List() ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("list memories: %w", err)
	}

	var out []Summary
	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")

		raw, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		out = append(out, Summary{
			Key:       key,
			Timestamp: entry.Timestamp,
			Preview:   preview(entry.Data),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	if out == nil {
		out = []Summary{}
	}
	return out, nil
}

// Delete removes the memory stored under key. Deleting a missing key
// is not an error.
func (s *Store) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete memory %q: %w", key, err)
	}
	return nil
}

// Prune removes memories whose timestamp is older than maxAge.
// Returns the number of entries removed. Entries with unparseable
// timestamps are left alone.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	summaries, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, sum := range summaries {
		ts, err := time.Parse(time.RFC3339, sum.Timestamp)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			if err := s.Delete(sum.Key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

// preview renders a short single-line excerpt of a stored value.
func preview(data any) string {
	var text string
	switch v := data.(type) {
	case string:
		text = v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			text = fmt.Sprintf("%v", v)
		} else {
			text = string(raw)
		}
	}
	if len(text) > 100 {
		return text[:100] + "..."
	}
	return text
}
