package recording_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/recording"
	"github.com/vaishnavucv/droid-proctoring/internal/test"
)

type memSink struct {
	mu      sync.Mutex
	data    map[string][]byte
	failOne bool
}

func newMemSink() *memSink {
	return &memSink{data: map[string][]byte{}}
}

func (s *memSink) Append(folder, sessionKey, streamType string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOne {
		s.failOne = false
		return errors.New("disk full")
	}
	key := folder + "/" + sessionKey + "_" + streamType
	s.data[key] = append(s.data[key], payload...)
	return nil
}

func (s *memSink) get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key]
}

func TestFlushAppendsInOrder(t *testing.T) {
	handle := test.NewFakeHandle("")
	sink := newMemSink()
	rec := recording.New(sink, metrics.New(), "f", "k", media.StreamScreen, func() media.Handle { return handle })

	handle.Buffer([]byte("aaa"))
	require.NoError(t, rec.Flush(context.Background()))
	handle.Buffer([]byte("bbb"))
	require.NoError(t, rec.Flush(context.Background()))

	assert.Equal(t, "aaabbb", string(sink.get("f/k_screen")))
}

func TestFlushSkipsEmptyBuffer(t *testing.T) {
	handle := test.NewFakeHandle("")
	sink := newMemSink()
	rec := recording.New(sink, metrics.New(), "f", "k", media.StreamCamera, func() media.Handle { return handle })

	require.NoError(t, rec.Flush(context.Background()))
	assert.Empty(t, sink.get("f/k_camera"))
}

func TestFlushToleratesMissingHandle(t *testing.T) {
	sink := newMemSink()
	rec := recording.New(sink, metrics.New(), "f", "k", media.StreamScreen, func() media.Handle { return nil })

	require.NoError(t, rec.Flush(context.Background()))
}

func TestFlushToleratesInactiveHandle(t *testing.T) {
	handle := test.NewFakeHandle("")
	handle.End()
	sink := newMemSink()
	rec := recording.New(sink, metrics.New(), "f", "k", media.StreamScreen, func() media.Handle { return handle })

	require.NoError(t, rec.Flush(context.Background()))
	assert.Equal(t, 0, handle.ChunkCalls())
}

func TestSessionSurvivesSinkFailure(t *testing.T) {
	handle := test.NewFakeHandle("")
	sink := newMemSink()
	sink.failOne = true
	rec := recording.New(sink, metrics.New(), "f", "k", media.StreamScreen, func() media.Handle { return handle })

	handle.Buffer([]byte("lost"))
	assert.Error(t, rec.Flush(context.Background()))

	// Next tick keeps going.
	handle.Buffer([]byte("kept"))
	require.NoError(t, rec.Flush(context.Background()))
	assert.Equal(t, "kept", string(sink.get("f/k_screen")))
}

func TestCloseDrainsTail(t *testing.T) {
	handle := test.NewFakeHandle("")
	sink := newMemSink()
	rec := recording.New(sink, metrics.New(), "f", "k", media.StreamCamera, func() media.Handle { return handle })

	handle.Buffer([]byte("tail"))
	require.NoError(t, rec.Close(context.Background()))
	assert.Equal(t, "tail", string(sink.get("f/k_camera")))
}
