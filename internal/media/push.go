package media

import (
	"context"
	"sync"
)

// pushHandle is a capture stream fed by an external client instead of a local
// device. Frames and media chunks arrive over HTTP and are buffered until the
// analysis scheduler or a recorder drains them.
type pushHandle struct {
	mu sync.Mutex

	surface string
	frame   []byte
	chunk   []byte
	active  bool
	done    chan struct{}
}

func newPushHandle(surface string) *pushHandle {
	return &pushHandle{
		surface: surface,
		active:  true,
		done:    make(chan struct{}),
	}
}

func (h *pushHandle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// Frame returns the most recently pushed still. Before the first push the
// handle reports inactive so the scheduler skips the tick instead of
// analyzing nothing.
func (h *pushHandle) Frame(_ context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.active || h.frame == nil {
		return nil, ErrHandleInactive
	}
	return h.frame, nil
}

func (h *pushHandle) Chunk(_ context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.chunk
	h.chunk = nil
	return out, nil
}

func (h *pushHandle) Done() <-chan struct{} { return h.done }

func (h *pushHandle) Surface() string { return h.surface }

func (h *pushHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active {
		h.active = false
		close(h.done)
	}
}

func (h *pushHandle) feedFrame(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = frame
}

func (h *pushHandle) feedChunk(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunk = append(h.chunk, b...)
}

// PushProvider hands out push-fed handles. It is the production capture layer
// for deployments where the candidate's browser samples its own devices and
// streams the material to the server.
type PushProvider struct {
	mu     sync.Mutex
	screen *pushHandle
	camera *pushHandle
}

func NewPushProvider() *PushProvider {
	return &PushProvider{}
}

func (p *PushProvider) OpenScreen(_ context.Context) (ScreenHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screen = newPushHandle(SurfaceMonitor)
	return p.screen, nil
}

func (p *PushProvider) OpenCameraMic(_ context.Context) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.camera = newPushHandle("camera")
	return p.camera, nil
}

// ProbeClipboard always succeeds: clipboard state is checked on the pushing
// client, not on the server.
func (p *PushProvider) ProbeClipboard(_ context.Context) error {
	return nil
}

// FeedFrame replaces the current still of the given stream.
func (p *PushProvider) FeedFrame(stream StreamType, frame []byte) {
	if h := p.handle(stream); h != nil {
		h.feedFrame(frame)
	}
}

// FeedChunk appends pushed media to the stream's chunk buffer.
func (p *PushProvider) FeedChunk(stream StreamType, b []byte) {
	if h := p.handle(stream); h != nil {
		h.feedChunk(b)
	}
}

// EndScreen simulates the client revoking the screen share, which the
// acquirer's end watcher turns into a lockdown.
func (p *PushProvider) EndScreen() {
	p.mu.Lock()
	h := p.screen
	p.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

func (p *PushProvider) handle(stream StreamType) *pushHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch stream {
	case StreamScreen:
		return p.screen
	case StreamCamera:
		return p.camera
	}
	return nil
}
