package media_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/test"
)

func TestAcquireScreenFullDisplay(t *testing.T) {
	ctx := context.Background()
	provider := &test.FakeProvider{ScreenHandle: test.NewFakeHandle(media.SurfaceMonitor)}
	a := media.NewAcquirer(provider)

	require.NoError(t, a.AcquireScreen(ctx))
	assert.NotNil(t, a.Screen())
	assert.False(t, a.ScreenLost())
	assert.Equal(t, 1, provider.ScreenRequests)
}

func TestAcquireScreenRejectsWindowSurface(t *testing.T) {
	ctx := context.Background()
	handle := test.NewFakeHandle("window")
	provider := &test.FakeProvider{ScreenHandle: handle}
	a := media.NewAcquirer(provider)

	err := a.AcquireScreen(ctx)
	assert.ErrorIs(t, err, media.ErrWrongSurface)
	assert.Nil(t, a.Screen())
	// The rejected handle must be released, not leaked.
	assert.False(t, handle.Active())
}

func TestScreenLossTriggersLockdown(t *testing.T) {
	ctx := context.Background()
	handle := test.NewFakeHandle(media.SurfaceMonitor)
	provider := &test.FakeProvider{ScreenHandle: handle}
	a := media.NewAcquirer(provider)

	lockdown := make(chan struct{}, 1)
	a.OnScreenLost(func() { lockdown <- struct{}{} })
	require.NoError(t, a.AcquireScreen(ctx))

	handle.End()

	select {
	case <-lockdown:
	case <-time.After(time.Second):
		t.Fatal("screen loss did not trigger lockdown")
	}
	assert.True(t, a.ScreenLost())
	assert.Nil(t, a.Screen())
}

func TestStaleWatcherIgnoredAfterReacquire(t *testing.T) {
	ctx := context.Background()
	first := test.NewFakeHandle(media.SurfaceMonitor)
	provider := &test.FakeProvider{ScreenHandle: first}
	a := media.NewAcquirer(provider)
	require.NoError(t, a.AcquireScreen(ctx))

	second := test.NewFakeHandle(media.SurfaceMonitor)
	provider.ScreenHandle = second
	require.NoError(t, a.AcquireScreen(ctx))

	first.End()
	// Give the stale watcher a chance to fire.
	time.Sleep(50 * time.Millisecond)
	assert.False(t, a.ScreenLost())
	assert.NotNil(t, a.Screen())
}

func TestAcquireCameraMicFailureNotRetried(t *testing.T) {
	ctx := context.Background()
	provider := &test.FakeProvider{CameraErr: media.ErrPermissionDenied}
	a := media.NewAcquirer(provider)

	err := a.AcquireCameraMic(ctx)
	assert.Error(t, err)
	assert.Nil(t, a.Camera())
	assert.Equal(t, 1, provider.CameraRequests)
}

func TestStopAllReleasesEverything(t *testing.T) {
	ctx := context.Background()
	screen := test.NewFakeHandle(media.SurfaceMonitor)
	camera := test.NewFakeHandle("")
	provider := &test.FakeProvider{ScreenHandle: screen, CameraHandle: camera}
	a := media.NewAcquirer(provider)
	require.NoError(t, a.AcquireScreen(ctx))
	require.NoError(t, a.AcquireCameraMic(ctx))

	a.StopAll()

	assert.False(t, screen.Active())
	assert.False(t, camera.Active())
	assert.Nil(t, a.Screen())
	assert.Nil(t, a.Camera())
}
