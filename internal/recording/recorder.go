package recording

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/metrics"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

// SegmentSink receives drained media segments. Appends for the same stream
// arrive in capture order; the sink concatenates them under a stable filename.
type SegmentSink interface {
	Append(folder, sessionKey, streamType string, payload []byte) error
}

// Recorder drains one capture stream into the segment sink on a fixed cadence.
// A session runs two of these, one per stream. Flush is only ever called from
// a single goroutine per recorder, so deliveries stay ordered without locking.
type Recorder struct {
	sink       SegmentSink
	metrics    *metrics.Service
	folder     string
	sessionKey string
	stream     media.StreamType

	handle func() media.Handle
}

// New builds a recorder over a handle accessor rather than a handle: the
// screen share can be revoked and re-granted mid-session, and the recorder
// must always drain the current handle.
func New(sink SegmentSink, m *metrics.Service, folder, sessionKey string, stream media.StreamType, handle func() media.Handle) *Recorder {
	return &Recorder{
		sink:       sink,
		metrics:    m,
		folder:     folder,
		sessionKey: sessionKey,
		stream:     stream,
		handle:     handle,
	}
}

// Flush drains the media buffered since the previous flush and appends it to
// the sink. A missing or inactive handle is not an error; a sink failure is
// reported but does not abort the session, the next flush simply carries on.
func (r *Recorder) Flush(ctx context.Context) error {
	handle := r.handle()
	if handle == nil || !handle.Active() {
		return nil
	}

	payload, err := handle.Chunk(ctx)
	if err != nil {
		r.metrics.SegmentFailed(string(r.stream))
		return errors.Wrap(err, "failed to drain capture buffer")
	}
	if len(payload) == 0 {
		return nil
	}

	if err := r.sink.Append(r.folder, r.sessionKey, string(r.stream), payload); err != nil {
		r.metrics.SegmentFailed(string(r.stream))
		util.LogFromContext(ctx).Error().
			Err(err).
			Str("stream", string(r.stream)).
			Str("folder", r.folder).
			Msg("Failed to persist recording segment")
		return errors.Wrap(err, "failed to persist segment")
	}

	r.metrics.SegmentDelivered(string(r.stream))
	return nil
}

// Close performs the final drain so the tail of the recording is not lost
// when the session ends between ticks.
func (r *Recorder) Close(ctx context.Context) error {
	return r.Flush(ctx)
}
