package test

import (
	"context"
	"sync"

	"github.com/vaishnavucv/droid-proctoring/internal/media"
)

// FakeHandle is an in-memory capture handle for tests. Frame returns the
// configured still, Chunk returns and clears whatever was buffered since the
// last call.
type FakeHandle struct {
	mu sync.Mutex

	SurfaceName string
	FrameData   []byte
	FrameErr    error

	buffered []byte
	chunks   int
	active   bool
	done     chan struct{}
}

func NewFakeHandle(surface string) *FakeHandle {
	return &FakeHandle{
		SurfaceName: surface,
		FrameData:   []byte("frame"),
		active:      true,
		done:        make(chan struct{}),
	}
}

func (h *FakeHandle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *FakeHandle) Frame(_ context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FrameErr != nil {
		return nil, h.FrameErr
	}
	return h.FrameData, nil
}

func (h *FakeHandle) Chunk(_ context.Context) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.buffered
	h.buffered = nil
	h.chunks++
	return out, nil
}

// Buffer appends media bytes that the next Chunk call will drain.
func (h *FakeHandle) Buffer(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buffered = append(h.buffered, b...)
}

func (h *FakeHandle) ChunkCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chunks
}

func (h *FakeHandle) Done() <-chan struct{} { return h.done }

func (h *FakeHandle) Surface() string { return h.SurfaceName }

// End simulates the underlying track ending (user revokes the share).
func (h *FakeHandle) End() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active {
		h.active = false
		close(h.done)
	}
}

func (h *FakeHandle) Stop() {
	h.End()
}

// FakeProvider hands out pre-configured handles and records grant requests.
type FakeProvider struct {
	mu sync.Mutex

	ScreenHandle *FakeHandle
	CameraHandle *FakeHandle
	ScreenErr    error
	CameraErr    error
	ClipboardErr error

	ScreenRequests int
	CameraRequests int
}

func (p *FakeProvider) OpenScreen(_ context.Context) (media.ScreenHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ScreenRequests++
	if p.ScreenErr != nil {
		return nil, p.ScreenErr
	}
	return p.ScreenHandle, nil
}

func (p *FakeProvider) OpenCameraMic(_ context.Context) (media.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CameraRequests++
	if p.CameraErr != nil {
		return nil, p.CameraErr
	}
	return p.CameraHandle, nil
}

func (p *FakeProvider) ProbeClipboard(_ context.Context) error {
	return p.ClipboardErr
}
