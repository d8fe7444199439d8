// Package camera binds a capture device to the camera screen, tracks runtime
// permissions and saves single-shot captures into the media store.
package camera

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotBound = errors.New("camera: device not bound")
	ErrNoFrame  = errors.New("camera: no preview frame")
	ErrNotImage = errors.New("camera: frame is not an image")
)

// Lens selects the facing of the capture device
type Lens int

const (
	LensBack Lens = iota
	LensFront
)

func (l Lens) String() string {
	if l == LensFront {
		return "Front"
	}
	return "Back"
}

// Toggle returns the opposite lens
func (l Lens) Toggle() Lens {
	if l == LensBack {
		return LensFront
	}
	return LensBack
}

// ParseLens accepts "back" or "front"
func ParseLens(s string) (Lens, error) {
	switch strings.ToLower(s) {
	case "back", "":
		return LensBack, nil
	case "front":
		return LensFront, nil
	}
	return LensBack, fmt.Errorf("camera: unknown lens %q", s)
}

func (l Lens) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// Frame is one still image produced by a device
type Frame struct {
	Data      []byte
	MimeType  string
	Extension string
	Lens      Lens
	At        time.Time
}

// Device is a capture device that can be bound to one lens at a time
type Device interface {
	Bind(ctx context.Context, lens Lens) error
	Capture(ctx context.Context) (Frame, error)
	Unbind()
}

// FrameDevice is a Device whose preview frames are pushed by the shell.
// Capture returns the latest frame of the bound lens.
type FrameDevice struct {
	mu     sync.Mutex
	bound  bool
	lens   Lens
	frames map[Lens]Frame
	now    func() time.Time
}

// NewFrameDevice creates an unbound FrameDevice
func NewFrameDevice() *FrameDevice {
	return &FrameDevice{frames: make(map[Lens]Frame), now: time.Now}
}

func (d *FrameDevice) Bind(ctx context.Context, lens Lens) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bound = true
	d.lens = lens
	return nil
}

func (d *FrameDevice) Unbind() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bound = false
}

// Bound returns the bound lens, if any
func (d *FrameDevice) Bound() (Lens, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lens, d.bound
}

// PushFrame stores data as the latest preview frame for lens
func (d *FrameDevice) PushFrame(lens Lens, data []byte) (Frame, error) {
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return Frame{}, fmt.Errorf("%w: %s", ErrNotImage, mime.String())
	}
	frame := Frame{
		Data:      append([]byte(nil), data...),
		MimeType:  mime.String(),
		Extension: mime.Extension(),
		Lens:      lens,
		At:        d.now(),
	}
	d.mu.Lock()
	d.frames[lens] = frame
	d.mu.Unlock()
	return frame, nil
}

func (d *FrameDevice) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.bound {
		return Frame{}, ErrNotBound
	}
	frame, ok := d.frames[d.lens]
	if !ok {
		return Frame{}, ErrNoFrame
	}
	return frame, nil
}
