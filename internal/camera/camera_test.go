package camera

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/media"
)

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}

type rig struct {
	adapter *Adapter
	device  *FrameDevice
	store   *media.LocalStore
}

func newRig(t *testing.T) rig {
	t.Helper()
	worker := binder.NewLoop(8)
	t.Cleanup(worker.Close)
	store, err := media.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	device := NewFrameDevice()
	a := NewAdapter(device, store, worker, zap.NewNop())
	a.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return rig{adapter: a, device: device, store: store}
}

func waitFor(t *testing.T, a *Adapter, cond func(Status) bool) Status {
	t.Helper()
	require.Eventually(t, func() bool { return cond(a.Status()) }, 2*time.Second, 5*time.Millisecond)
	return a.Status()
}

func TestStartBindsBackCamera(t *testing.T) {
	r := newRig(t)
	r.adapter.Start(context.Background(), true)
	st := waitFor(t, r.adapter, func(s Status) bool { return s.Ready })
	assert.Equal(t, "Camera ready: Back camera", st.Message)
	lens, bound := r.device.Bound()
	assert.True(t, bound)
	assert.Equal(t, LensBack, lens)
}

func TestCaptureWithoutPermission(t *testing.T) {
	r := newRig(t)
	r.adapter.Start(context.Background(), false)
	err := r.adapter.Capture(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPermission)
	assert.Equal(t, "Cannot capture: Camera permission not granted.", r.adapter.Status().Message)

	assert.ErrorIs(t, r.adapter.SwitchLens(context.Background()), ErrNoPermission)
	assert.Equal(t, "Cannot switch camera: Permission not granted.", r.adapter.Status().Message)
}

func TestPermissionDeniedMessage(t *testing.T) {
	r := newRig(t)
	r.adapter.PermissionResult(context.Background(), false)
	assert.Equal(t, "Camera permission denied. Cannot use camera.", r.adapter.Status().Message)
	assert.False(t, r.adapter.Status().Permission)
}

func TestCaptureSavesIntoCameraFolder(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.adapter.Start(ctx, true)
	waitFor(t, r.adapter, func(s Status) bool { return s.Ready })
	_, err := r.device.PushFrame(LensBack, jpegBytes)
	require.NoError(t, err)

	results := make(chan CaptureResult, 1)
	require.NoError(t, r.adapter.Capture(ctx, func(res CaptureResult) { results <- res }))

	select {
	case res := <-results:
		require.NoError(t, res.Err)
		assert.Equal(t, "/media/Pictures/MyCamera/20240506_070809.jpg", res.Item.URI)
		rc, _, err := r.store.Open(ctx, res.Item.URI)
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		rc.Close()
		assert.Equal(t, jpegBytes, data)
	case <-time.After(2 * time.Second):
		t.Fatal("capture never finished")
	}
	st := r.adapter.Status()
	assert.False(t, st.Capturing)
	assert.Equal(t, "Photo captured: /media/Pictures/MyCamera/20240506_070809.jpg", st.Message)
}

func TestCaptureWithoutFrameFails(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.adapter.Start(ctx, true)
	waitFor(t, r.adapter, func(s Status) bool { return s.Ready })

	results := make(chan CaptureResult, 1)
	require.NoError(t, r.adapter.Capture(ctx, func(res CaptureResult) { results <- res }))
	res := <-results
	assert.ErrorIs(t, res.Err, errCaptureFailed)
	assert.Equal(t, "Failed to capture photo.", r.adapter.Status().Message)
}

func TestSecondCaptureWhileBusy(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.adapter.Start(ctx, true)
	waitFor(t, r.adapter, func(s Status) bool { return s.Ready })
	_, err := r.device.PushFrame(LensBack, jpegBytes)
	require.NoError(t, err)

	// hold the worker so the first capture stays in flight
	hold := make(chan struct{})
	require.NoError(t, r.adapter.worker.Post(func() { <-hold }))

	finished := make(chan struct{})
	require.NoError(t, r.adapter.Capture(ctx, func(CaptureResult) { close(finished) }))
	assert.ErrorIs(t, r.adapter.Capture(ctx, nil), ErrBusy)
	assert.Equal(t, "Already capturing. Please wait.", r.adapter.Status().Message)
	assert.ErrorIs(t, r.adapter.SwitchLens(ctx), ErrBusy)
	assert.Equal(t, "Cannot switch camera while capturing.", r.adapter.Status().Message)

	close(hold)
	<-finished
}

func TestCaptureBeforeReady(t *testing.T) {
	r := newRig(t)
	r.adapter.update(func(s *Status) { s.Permission = true })
	assert.ErrorIs(t, r.adapter.Capture(context.Background(), nil), ErrNotReady)
	assert.Equal(t, "Camera not ready. Please wait.", r.adapter.Status().Message)
}

func TestSwitchLensRebinds(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.adapter.Start(ctx, true)
	waitFor(t, r.adapter, func(s Status) bool { return s.Ready })

	require.NoError(t, r.adapter.SwitchLens(ctx))
	st := waitFor(t, r.adapter, func(s Status) bool { return s.Ready })
	assert.Equal(t, LensFront, st.Lens)
	assert.Equal(t, "Camera ready: Front camera", st.Message)
	lens, _ := r.device.Bound()
	assert.Equal(t, LensFront, lens)
}

func TestPushFrameRejectsNonImage(t *testing.T) {
	d := NewFrameDevice()
	_, err := d.PushFrame(LensBack, []byte("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestParseLens(t *testing.T) {
	l, err := ParseLens("FRONT")
	require.NoError(t, err)
	assert.Equal(t, LensFront, l)
	_, err = ParseLens("side")
	assert.Error(t, err)
	text, _ := LensFront.MarshalText()
	assert.True(t, strings.EqualFold("front", string(text)))
}

func TestPermissions(t *testing.T) {
	p := NewPermissions()
	assert.False(t, p.Request(PermissionCamera))
	assert.False(t, p.Request(PermissionMediaRead))
	assert.Equal(t, []Permission{PermissionCamera, PermissionMediaRead}, p.Pending())

	var got []string
	stop := p.Watch(func(perm Permission, granted bool) {
		if granted {
			got = append(got, string(perm)+":yes")
		} else {
			got = append(got, string(perm)+":no")
		}
	})
	p.Resolve(PermissionCamera, true)
	p.Resolve(PermissionMediaRead, false)
	stop()
	p.Resolve(PermissionMediaRead, true)

	assert.Equal(t, []string{"camera:yes", "media_read:no"}, got)
	assert.Empty(t, p.Pending())
	assert.True(t, p.Request(PermissionCamera))
	assert.Equal(t, GrantAllowed, p.Status(PermissionMediaRead))
}
