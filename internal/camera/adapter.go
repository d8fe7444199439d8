package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anonto42/snapfeed/internal/binder"
	"github.com/anonto42/snapfeed/internal/media"
)

var (
	ErrBusy          = errors.New("camera: capture in progress")
	ErrNoPermission  = errors.New("camera: permission not granted")
	ErrNotReady      = errors.New("camera: not ready")
	errCaptureFailed = errors.New("camera: capture failed")
)

// Status is what the camera screen shows
type Status struct {
	Lens       Lens   `json:"lens"`
	Permission bool   `json:"permission"`
	Ready      bool   `json:"ready"`
	Capturing  bool   `json:"capturing"`
	Message    string `json:"message,omitempty"`
}

// CaptureResult is delivered once a capture finishes
type CaptureResult struct {
	Item media.Item
	Err  error
}

// Adapter drives a Device for the camera screen. Binding and capture run on a
// single worker so callbacks never overlap.
type Adapter struct {
	device Device
	store  media.Store
	worker *binder.Loop
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	status   Status
	onChange func(Status)
}

// NewAdapter creates an Adapter on the back lens. worker runs bind and
// capture jobs.
func NewAdapter(device Device, store media.Store, worker *binder.Loop, logger *zap.Logger) *Adapter {
	return &Adapter{
		device: device,
		store:  store,
		worker: worker,
		logger: logger.Named("camera"),
		now:    time.Now,
		status: Status{Lens: LensBack},
	}
}

// OnChange sets the function receiving every status change
func (a *Adapter) OnChange(fn func(Status)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// Status returns the current status
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Adapter) update(fn func(*Status)) {
	a.mu.Lock()
	fn(&a.status)
	snap := a.status
	onChange := a.onChange
	a.mu.Unlock()
	if onChange != nil {
		onChange(snap)
	}
}

// Start records whether the camera permission is held and binds when it is
func (a *Adapter) Start(ctx context.Context, granted bool) {
	a.update(func(s *Status) { s.Permission = granted })
	if granted {
		a.bind(ctx)
	}
}

// PermissionResult applies the user's answer to the permission prompt
func (a *Adapter) PermissionResult(ctx context.Context, granted bool) {
	a.update(func(s *Status) {
		s.Permission = granted
		if granted {
			s.Message = "Camera permission granted. Starting camera..."
		} else {
			s.Message = "Camera permission denied. Cannot use camera."
		}
	})
	if granted {
		a.bind(ctx)
	}
}

func (a *Adapter) bind(ctx context.Context) {
	err := a.worker.Post(func() {
		lens := a.Status().Lens
		a.device.Unbind()
		if err := a.device.Bind(ctx, lens); err != nil {
			a.logger.Error("use case binding failed", zap.Error(err))
			a.update(func(s *Status) {
				s.Ready = false
				s.Message = "Camera error: " + err.Error()
			})
			return
		}
		a.logger.Debug("camera bound", zap.Stringer("lens", lens))
		a.update(func(s *Status) {
			s.Ready = true
			s.Message = fmt.Sprintf("Camera ready: %s camera", lens)
		})
	})
	if err != nil {
		a.logger.Warn("bind not scheduled", zap.Error(err))
	}
}

// SwitchLens toggles between back and front and rebinds
func (a *Adapter) SwitchLens(ctx context.Context) error {
	var err error
	a.update(func(s *Status) {
		switch {
		case s.Permission && !s.Capturing:
			s.Lens = s.Lens.Toggle()
			s.Ready = false
			s.Message = fmt.Sprintf("Switching camera to %s...", lower(s.Lens))
		case s.Capturing:
			s.Message = "Cannot switch camera while capturing."
			err = ErrBusy
		default:
			s.Message = "Cannot switch camera: Permission not granted."
			err = ErrNoPermission
		}
	})
	if err != nil {
		return err
	}
	a.bind(ctx)
	return nil
}

// Capture takes one photo and saves it under media.CameraFolder. done, when
// not nil, runs on the worker with the outcome. A rejected request returns
// an error and never calls done.
func (a *Adapter) Capture(ctx context.Context, done func(CaptureResult)) error {
	var err error
	a.update(func(s *Status) {
		switch {
		case s.Permission && s.Ready && !s.Capturing:
			s.Capturing = true
		case !s.Permission:
			s.Message = "Cannot capture: Camera permission not granted."
			err = ErrNoPermission
		case s.Capturing:
			s.Message = "Already capturing. Please wait."
			err = ErrBusy
		default:
			s.Message = "Camera not ready. Please wait."
			err = ErrNotReady
		}
	})
	if err != nil {
		return err
	}

	postErr := a.worker.Post(func() {
		item, err := a.takePhoto(ctx)
		a.update(func(s *Status) {
			s.Capturing = false
			if err != nil {
				s.Message = "Failed to capture photo."
				return
			}
			s.Message = "Photo captured: " + item.URI
		})
		if done != nil {
			done(CaptureResult{Item: item, Err: err})
		}
	})
	if postErr != nil {
		a.update(func(s *Status) { s.Capturing = false })
		return postErr
	}
	return nil
}

func (a *Adapter) takePhoto(ctx context.Context) (media.Item, error) {
	frame, err := a.device.Capture(ctx)
	if err != nil {
		a.logger.Error("photo capture failed", zap.Error(err))
		return media.Item{}, fmt.Errorf("%w: %v", errCaptureFailed, err)
	}
	ext := frame.Extension
	if ext == "" {
		ext = ".jpg"
	}
	name := a.now().Format("20060102_150405") + ext
	item, err := a.store.Save(ctx, media.CameraFolder, name, frame.MimeType, frame.Data)
	if err != nil {
		a.logger.Error("photo capture failed", zap.Error(err))
		return media.Item{}, fmt.Errorf("%w: %v", errCaptureFailed, err)
	}
	a.logger.Info("photo captured", zap.String("uri", item.URI))
	return item, nil
}

// Stop unbinds the device
func (a *Adapter) Stop() {
	a.device.Unbind()
	a.update(func(s *Status) { s.Ready = false })
}

func lower(l Lens) string {
	if l == LensFront {
		return "front"
	}
	return "back"
}
