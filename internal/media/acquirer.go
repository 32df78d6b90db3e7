package media

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Acquirer owns the two capture handles of a session and watches them for
// end-of-stream. Losing the screen handle re-arms the lockdown condition via
// the registered callback.
type Acquirer struct {
	mu sync.Mutex

	provider Provider
	screen   ScreenHandle
	camera   Handle

	screenLost   bool
	onScreenLost func()
}

func NewAcquirer(provider Provider) *Acquirer {
	return &Acquirer{provider: provider}
}

// OnScreenLost registers the lockdown callback invoked when the screen track
// ends. Must be set before AcquireScreen.
func (a *Acquirer) OnScreenLost(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onScreenLost = fn
}

// AcquireScreen requests a screen share and accepts it only when the shared
// surface is a full display. On success an end-of-stream watcher is installed.
func (a *Acquirer) AcquireScreen(ctx context.Context) error {
	handle, err := a.provider.OpenScreen(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to acquire screen")
	}

	if handle.Surface() != SurfaceMonitor {
		// Partial shares are worthless as evidence. Release immediately.
		handle.Stop()
		return ErrWrongSurface
	}

	a.mu.Lock()
	a.screen = handle
	a.screenLost = false
	a.mu.Unlock()

	go a.watchScreen(handle)

	log.Info().Str("surface", handle.Surface()).Msg("Screen capture acquired")
	return nil
}

func (a *Acquirer) watchScreen(handle ScreenHandle) {
	<-handle.Done()

	a.mu.Lock()
	// A stale watcher from a previous acquisition must not clobber a fresh
	// handle after re-acquisition.
	if a.screen != handle {
		a.mu.Unlock()
		return
	}
	a.screenLost = true
	fn := a.onScreenLost
	a.mu.Unlock()

	log.Warn().Msg("Screen capture ended, re-arming lockdown")
	if fn != nil {
		fn()
	}
}

// AcquireCameraMic requests the combined camera+microphone stream. Failure is
// reported to the caller and never retried automatically.
func (a *Acquirer) AcquireCameraMic(ctx context.Context) error {
	handle, err := a.provider.OpenCameraMic(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to acquire camera and microphone")
	}

	a.mu.Lock()
	a.camera = handle
	a.mu.Unlock()

	log.Info().Msg("Camera and microphone acquired")
	return nil
}

// ProbeClipboard is a one-shot capability check; no handle is retained.
func (a *Acquirer) ProbeClipboard(ctx context.Context) error {
	if err := a.provider.ProbeClipboard(ctx); err != nil {
		return errors.Wrap(err, "clipboard probe failed")
	}
	return nil
}

// Screen returns the borrowed screen handle, or nil when absent or lost.
func (a *Acquirer) Screen() Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.screen == nil || a.screenLost {
		return nil
	}
	return a.screen
}

// Camera returns the borrowed camera handle, or nil when absent.
func (a *Acquirer) Camera() Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.camera == nil {
		return nil
	}
	return a.camera
}

// ScreenLost reports whether the screen handle ended since acquisition.
func (a *Acquirer) ScreenLost() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screenLost
}

// StopAll stops every owned track and clears the handles. It runs on every
// path out of the running state, including the unload hook, so devices are
// never leaked.
func (a *Acquirer) StopAll() {
	a.mu.Lock()
	screen, camera := a.screen, a.camera
	a.screen, a.camera = nil, nil
	a.mu.Unlock()

	if screen != nil {
		screen.Stop()
	}
	if camera != nil {
		camera.Stop()
	}
}
