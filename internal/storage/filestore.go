package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// FileSegmentStore persists recording segments as append-only files under
// record/<folder>/video/<sessionKey>_<type>.webm. Appending under a stable
// filename makes the 5s chunking invisible in the persisted artifact: the
// file is one continuous recording.
type FileSegmentStore struct {
	root string
}

func NewFileSegmentStore(root string) *FileSegmentStore {
	return &FileSegmentStore{root: root}
}

func (s *FileSegmentStore) videoDir(folder string) string {
	return filepath.Join(s.root, folder, "video")
}

// Append appends payload bytes to the single logical file for (session key,
// stream type), creating it on first use.
func (s *FileSegmentStore) Append(folder, sessionKey, streamType string, payload []byte) error {
	dir := s.videoDir(folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create video directory")
	}

	name := fmt.Sprintf("%s_%s.webm", sessionKey, streamType)
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open segment file")
	}
	defer f.Close()

	if _, err := f.Write(payload); err != nil {
		return errors.Wrap(err, "failed to append segment")
	}

	log.Debug().
		Str("folder", folder).
		Str("stream", streamType).
		Int("bytes", len(payload)).
		Msg("Appended recording segment")
	return nil
}

// ListSessions returns all session folders, most recent first.
func (s *FileSegmentStore) ListSessions() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []SessionInfo{}, nil
		}
		return nil, errors.Wrap(err, "failed to read record directory")
	}

	sessions := make([]SessionInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		sessions = append(sessions, SessionInfo{ID: name, Name: name, Timestamp: folderTimestamp(name)})
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Timestamp > sessions[j].Timestamp })
	return sessions, nil
}

// ListChunks returns the recording artifacts of one session folder, sorted by
// name so they play back in capture order.
func (s *FileSegmentStore) ListChunks(folder string) ([]ChunkInfo, error) {
	dir := s.videoDir(folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionUnknown
		}
		return nil, errors.Wrap(err, "failed to read video directory")
	}

	chunks := make([]ChunkInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".webm") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		base := strings.TrimSuffix(name, ".webm")
		streamType := "unknown"
		withoutType := base
		switch {
		case strings.HasSuffix(base, "_screen"):
			streamType = "screen"
			withoutType = strings.TrimSuffix(base, "_screen")
		case strings.HasSuffix(base, "_camera"):
			streamType = "camera"
			withoutType = strings.TrimSuffix(base, "_camera")
		}

		// Filename format: <userID>_<courseID>_<startInstant>_<type>.webm
		ts := base
		if parts := strings.SplitN(withoutType, "_", 3); len(parts) == 3 {
			ts = parts[2]
		}

		chunks = append(chunks, ChunkInfo{
			Name:      name,
			URL:       fmt.Sprintf("/api/v1/proctoring/files/%s/%s", folder, name),
			Type:      streamType,
			Timestamp: ts,
			Size:      info.Size(),
			Created:   info.ModTime(),
		})
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Name < chunks[j].Name })
	return chunks, nil
}

// Open returns a range-capable reader over one persisted artifact plus its
// total size.
func (s *FileSegmentStore) Open(folder, name string) (io.ReadSeekCloser, int64, error) {
	// The filename comes from the request path; keep it inside the folder.
	if strings.Contains(name, "/") || strings.Contains(name, "..") ||
		strings.Contains(folder, "/") || strings.Contains(folder, "..") {
		return nil, 0, ErrSessionUnknown
	}

	path := filepath.Join(s.videoDir(folder), name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrSessionUnknown
		}
		return nil, 0, errors.Wrap(err, "failed to open recording file")
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, errors.Wrap(err, "failed to stat recording file")
	}
	return f, info.Size(), nil
}

// SaveReference stores the reference identity image for (folder, userID).
// Every registration cycle overwrites the previous image, so the reference
// always reflects the last frame captured during the registration window.
func (s *FileSegmentStore) SaveReference(folder, userID string, image []byte) error {
	dir := filepath.Join(s.root, folder, "face")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create face directory")
	}

	path := filepath.Join(dir, fmt.Sprintf("reference_%s.jpg", userID))
	if err := os.WriteFile(path, image, 0o644); err != nil {
		return errors.Wrap(err, "failed to save reference identity")
	}

	log.Debug().Str("folder", folder).Str("user_id", userID).Int("bytes", len(image)).
		Msg("Saved reference identity")
	return nil
}

// LoadReference returns the most recently registered reference image.
func (s *FileSegmentStore) LoadReference(folder, userID string) ([]byte, error) {
	path := filepath.Join(s.root, folder, "face", fmt.Sprintf("reference_%s.jpg", userID))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoReference
		}
		return nil, errors.Wrap(err, "failed to load reference identity")
	}
	return data, nil
}

// SessionFolder names the artifact folder of one attempt:
// <username>_<userID>_<date>_<time>.
func SessionFolder(username, userID string, start time.Time) string {
	return username + "_" + userID + "_" + sessionFileTimestamp(start)
}

// sessionFileTimestamp renders the folder/log timestamp component for a
// session start instant: YYYY-MM-DD_HH-MM-SS.
func sessionFileTimestamp(start time.Time) string {
	return start.Format("2006-01-02") + "_" + start.Format("15-04-05")
}

// folderTimestamp recovers a displayable "YYYY-MM-DD HH:MM:SS" from a session
// folder name, empty string when the name does not carry one.
func folderTimestamp(folder string) string {
	parts := strings.Split(folder, "_")
	if len(parts) < 2 {
		return ""
	}
	date := parts[len(parts)-2]
	clock := strings.ReplaceAll(parts[len(parts)-1], "-", ":")
	if len(date) != len("2006-01-02") {
		return ""
	}
	return date + " " + clock
}
