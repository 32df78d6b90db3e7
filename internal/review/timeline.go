package review

import (
	"sort"

	"github.com/vaishnavucv/droid-proctoring/internal/util"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

// Entry is one violation event positioned on the playback timeline.
type Entry struct {
	Event  violation.Event
	Offset int // seconds since session start
}

// Timeline correlates a session's violation events with a playing recording.
// Events are positioned by their elapsed-duration stamp; as playback
// advances, the event with the largest offset at or before the playhead is
// the "active" one.
type Timeline struct {
	entries []Entry
}

// NewTimeline builds a timeline from persisted events. Events whose duration
// stamp does not parse are dropped; the rest are ordered by offset, with the
// original (ordinal) order breaking ties so the latest event wins a shared
// offset.
func NewTimeline(events []violation.Event) *Timeline {
	entries := make([]Entry, 0, len(events))
	for _, event := range events {
		offset, err := util.ParseElapsed(event.Duration)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Event: event, Offset: offset})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Offset < entries[j].Offset })
	return &Timeline{entries: entries}
}

// Entries returns the ordered timeline.
func (t *Timeline) Entries() []Entry {
	return t.entries
}

// ActiveAt returns the index of the event active at the given playback
// second, or -1 when no event has started yet. Computed from scratch on
// every call: playback time is under user control and not monotonic, so
// nothing can be carried over from the previous position.
func (t *Timeline) ActiveAt(playbackSeconds int) int {
	if len(t.entries) == 0 || playbackSeconds < 0 {
		return -1
	}

	// Binary search for the first entry past the playhead; the active
	// entry is the one before it. Ties resolve to the latest entry at
	// that offset because Search finds the leftmost strictly-greater.
	idx := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].Offset > playbackSeconds
	})
	return idx - 1
}

// SeekTo returns the playback position of the given entry, and false when
// the index is out of range.
func (t *Timeline) SeekTo(index int) (int, bool) {
	if index < 0 || index >= len(t.entries) {
		return 0, false
	}
	return t.entries[index].Offset, true
}

// Summary counts entries per category prefix of the event type.
func (t *Timeline) Summary() map[string]int {
	counts := make(map[string]int, 4)
	for _, entry := range t.entries {
		counts[categoryOf(entry.Event.Type)]++
	}
	return counts
}

func categoryOf(eventType string) string {
	for i := 0; i < len(eventType); i++ {
		if eventType[i] == ':' {
			return eventType[:i]
		}
	}
	return eventType
}
