package screens

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/camera"
	"github.com/anonto42/snapfeed/internal/components"
	"github.com/anonto42/snapfeed/internal/navigation"
)

// Camera previews the device and captures photos into the camera folder
type Camera struct {
	deps      Deps
	chrome    *chrome
	adapter   *camera.Adapter
	state     *binder.Binder[camera.Status]
	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func()
}

// NewCamera creates the camera screen
func NewCamera(d Deps) *Camera {
	c := &Camera{
		deps:    d,
		chrome:  newChrome(navigation.RouteCamera, "Camera", d),
		adapter: camera.NewAdapter(d.Device, d.Media, d.Worker, d.Logger),
		state:   binder.New[camera.Status]("camera", d.Loop, d.Logger),
	}
	c.adapter.OnChange(func(st camera.Status) {
		_ = c.state.Mutate(func(s *binder.State[camera.Status]) { s.Data = st })
	})
	return c
}

func (c *Camera) Route() string { return navigation.RouteCamera }

func (c *Camera) Mount(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.chrome.mount()
	c.stopWatch = c.deps.Permissions.Watch(func(p camera.Permission, granted bool) {
		if p == camera.PermissionCamera {
			c.adapter.PermissionResult(c.ctx, granted)
		}
	})
	c.adapter.Start(c.ctx, c.deps.Permissions.Request(camera.PermissionCamera))
}

func (c *Camera) Observe(fn func()) func() {
	return binder.ObserveAll(fn, c.chrome.header, c.state)
}

func (c *Camera) Unmount() {
	if c.stopWatch != nil {
		c.stopWatch()
	}
	c.state.Unmount()
	c.chrome.unmount()
	c.adapter.Stop()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Camera) View() components.Node {
	st := c.state.Snapshot().Data
	var preview components.Node
	if st.Permission {
		preview = components.Node{Type: components.TypePreview, ID: "preview", Props: map[string]any{
			"lens":  st.Lens,
			"ready": st.Ready,
		}}
	} else {
		preview = components.Text("preview", "Camera Access Required")
		preview.Props["tone"] = "error"
	}

	shutter := components.Button("capture", "", &components.Intent{Action: components.ActionCapture})
	shutter.Props["enabled"] = !st.Capturing
	shutter.Props["busy"] = st.Capturing
	switchLens := components.Button("switch_lens", "Switch Camera", &components.Intent{Action: components.ActionSwitchLens})
	switchLens.Props["enabled"] = !st.Capturing

	body := []components.Node{preview}
	body = append(body, components.StatusText("camera_status", st.Message, false)...)
	body = append(body, components.Row("camera_controls", shutter, switchLens))
	return c.chrome.page(body...)
}

func (c *Camera) Handle(ctx context.Context, intent components.Intent) error {
	switch intent.Action {
	case components.ActionCapture:
		err := c.adapter.Capture(c.ctx, c.captured)
		if errors.Is(err, camera.ErrNoPermission) {
			c.deps.Permissions.Request(camera.PermissionCamera)
		}
		return ignoreRejected(err)
	case components.ActionSwitchLens:
		return ignoreRejected(c.adapter.SwitchLens(c.ctx))
	}
	return ErrUnhandledIntent
}

func (c *Camera) captured(res camera.CaptureResult) {
	if res.Err != nil {
		return
	}
	c.deps.Logger.Debug("photo captured", zap.String("uri", res.Item.URI))
	err := c.deps.Host.Navigate(navigation.RouteHome, navigation.NavOptions{PopUpTo: navigation.RouteCamera, Inclusive: true})
	if err != nil {
		c.deps.Logger.Error("navigate after capture", zap.Error(err))
	}
}

// ignoreRejected drops refusals already reported through the status line
func ignoreRejected(err error) error {
	if errors.Is(err, camera.ErrBusy) || errors.Is(err, camera.ErrNoPermission) || errors.Is(err, camera.ErrNotReady) {
		return nil
	}
	return err
}
