package review_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/review"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

func events() []violation.Event {
	return []violation.Event{
		{WarningCount: 1, Type: "fullscreen", Duration: "00:00:05"},
		{WarningCount: 2, Type: "face-malpractice: MULTIPLE FACES DETECTED", Duration: "00:01:30"},
		{WarningCount: 3, Type: "ai-alert: chat application visible", Duration: "00:02:00"},
	}
}

func TestActiveAtTracksPlayhead(t *testing.T) {
	tl := review.NewTimeline(events())

	assert.Equal(t, -1, tl.ActiveAt(2))
	assert.Equal(t, 0, tl.ActiveAt(5))
	assert.Equal(t, 0, tl.ActiveAt(89))
	assert.Equal(t, 1, tl.ActiveAt(105))
	assert.Equal(t, 2, tl.ActiveAt(120))
	assert.Equal(t, 2, tl.ActiveAt(9999))
}

func TestScrubBackwardRecomputes(t *testing.T) {
	tl := review.NewTimeline(events())

	assert.Equal(t, 2, tl.ActiveAt(150))
	assert.Equal(t, -1, tl.ActiveAt(0))
	assert.Equal(t, 1, tl.ActiveAt(95))
}

func TestTiesResolveToLatestEvent(t *testing.T) {
	tl := review.NewTimeline([]violation.Event{
		{WarningCount: 1, Type: "fullscreen", Duration: "00:00:10"},
		{WarningCount: 2, Type: "visibility", Duration: "00:00:10"},
	})

	assert.Equal(t, 1, tl.ActiveAt(10))
}

func TestEmptyTimelineHasNoActiveEvent(t *testing.T) {
	tl := review.NewTimeline(nil)

	assert.Equal(t, -1, tl.ActiveAt(0))
	assert.Equal(t, -1, tl.ActiveAt(500))
	assert.Empty(t, tl.Entries())
}

func TestSeekTo(t *testing.T) {
	tl := review.NewTimeline(events())

	offset, ok := tl.SeekTo(1)
	require.True(t, ok)
	assert.Equal(t, 90, offset)

	_, ok = tl.SeekTo(3)
	assert.False(t, ok)
	_, ok = tl.SeekTo(-1)
	assert.False(t, ok)
}

func TestUnparseableDurationsAreDropped(t *testing.T) {
	tl := review.NewTimeline([]violation.Event{
		{WarningCount: 1, Type: "fullscreen", Duration: "garbage"},
		{WarningCount: 2, Type: "visibility", Duration: "00:00:20"},
	})

	require.Len(t, tl.Entries(), 1)
	assert.Equal(t, 0, tl.ActiveAt(20))
}

func TestSummaryCountsByCategory(t *testing.T) {
	tl := review.NewTimeline(events())

	counts := tl.Summary()
	assert.Equal(t, 1, counts["fullscreen"])
	assert.Equal(t, 1, counts["face-malpractice"])
	assert.Equal(t, 1, counts["ai-alert"])
}

func TestNegativePlayheadHasNoActiveEvent(t *testing.T) {
	tl := review.NewTimeline(events())
	assert.Equal(t, -1, tl.ActiveAt(-3))
}
