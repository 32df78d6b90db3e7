package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// FileLogStore persists the violation events of a session as one JSON array
// per attempt: logs/<username>_<userID>_<date>_<time>.json.
type FileLogStore struct {
	mu   sync.Mutex
	root string
}

func NewFileLogStore(root string) *FileLogStore {
	return &FileLogStore{root: root}
}

// FileName derives the log filename for a session key.
func (s *FileLogStore) FileName(key violation.LogKey) string {
	return fmt.Sprintf("%s_%s_%s.json", key.Username, key.UserID, sessionFileTimestamp(key.SessionStart))
}

// Append adds one event to the session's log file, creating it on first use.
// The array on disk stays ordered by warning ordinal because events are
// reported in ordinal order and appends are serialized.
func (s *FileLogStore) Append(_ context.Context, key violation.LogKey, event violation.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errors.Wrap(err, "failed to create logs directory")
	}

	path := filepath.Join(s.root, s.FileName(key))

	var events []violation.Event
	if data, err := os.ReadFile(path); err == nil {
		// A corrupt file is replaced rather than failing the append.
		if err := json.Unmarshal(data, &events); err != nil {
			events = nil
		}
	}

	events = append(events, event)

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal log events")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write log file")
	}
	return nil
}

// Lookup returns the events for a session folder together with the matched
// log filename. When no exact match exists it falls back to the most recent
// log sharing the same <username>_<userID> prefix, preferring one that also
// matches the session date.
func (s *FileLogStore) Lookup(folder string) ([]violation.Event, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []violation.Event{}, "", nil
		}
		return nil, "", errors.Wrap(err, "failed to read logs directory")
	}

	var all []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			all = append(all, e.Name())
		}
	}

	matched := ""
	for _, name := range all {
		if name == folder+".json" {
			matched = name
			break
		}
	}

	if matched == "" {
		parts := strings.Split(folder, "_")
		if len(parts) >= 2 {
			prefix := parts[0] + "_" + parts[1]
			var candidates []string
			for _, name := range all {
				if strings.HasPrefix(name, prefix) {
					candidates = append(candidates, name)
				}
			}
			sort.Sort(sort.Reverse(sort.StringSlice(candidates)))

			if len(parts) >= 3 {
				datePrefix := prefix + "_" + parts[2]
				for _, name := range candidates {
					if strings.HasPrefix(name, datePrefix) {
						matched = name
						break
					}
				}
			}
			if matched == "" && len(candidates) > 0 {
				matched = candidates[0]
			}
		}
	}

	if matched == "" {
		return []violation.Event{}, "", nil
	}

	data, err := os.ReadFile(filepath.Join(s.root, matched))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read log file")
	}

	var events []violation.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return []violation.Event{}, matched, nil
	}
	return events, matched, nil
}
