package media

import (
	"context"

	"github.com/pkg/errors"
)

// StreamType identifies one of the two recorded streams of a session.
type StreamType string

const (
	StreamScreen StreamType = "screen"
	StreamCamera StreamType = "camera"
)

// SurfaceMonitor is the only display surface accepted for screen sharing.
// Window or tab capture leaves too much of the desktop unobserved.
const SurfaceMonitor = "monitor"

var (
	ErrPermissionDenied = errors.New("media permission denied")
	ErrWrongSurface     = errors.New("shared surface is not a full display")
	ErrHandleInactive   = errors.New("capture handle is not active")
)

// Handle is a live capture stream. Handles are owned by the Acquirer; the
// recording pipeline and the analysis scheduler only borrow them and must
// never stop the underlying tracks.
//
// The contract mirrors a stream provider:
//   - Active is safe to call from any goroutine.
//   - Frame samples exactly one encoded still of the current picture.
//   - Chunk drains the media buffered since the previous Chunk call.
//   - Done is closed when the underlying track ends for any reason.
//   - Stop is idempotent and reserved for the owner.
type Handle interface {
	Active() bool
	Frame(ctx context.Context) ([]byte, error)
	Chunk(ctx context.Context) ([]byte, error)
	Done() <-chan struct{}
	Stop()
}

// ScreenHandle additionally reports which display surface is being shared.
type ScreenHandle interface {
	Handle
	Surface() string
}

// Provider abstracts the device layer that hands out capture streams. Every
// acquisition requires a prior explicit user grant; providers must never
// re-acquire silently.
type Provider interface {
	OpenScreen(ctx context.Context) (ScreenHandle, error)
	OpenCameraMic(ctx context.Context) (Handle, error)
	ProbeClipboard(ctx context.Context) error
}
