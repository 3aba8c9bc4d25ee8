// Package handler owns the device mode state machine and issues all side
// effects. A handler is called synchronously from the dispatcher goroutine
// only, so it needs no locking of its own.
package handler

import (
	"fmt"
	"strings"

	"convertd/internal/event"
	"convertd/internal/logging"
	"convertd/internal/x11"
)

// Mode is the two-valued device mode.
type Mode string

const (
	ModeLaptop Mode = "laptop"
	ModeTablet Mode = "tablet"
)

// Handler reacts to dispatched events.
type Handler interface {
	// OnModeChange flips the device mode and invokes OnTabletMode or
	// OnLaptopMode for the new mode.
	OnModeChange()
	OnTabletMode()
	OnLaptopMode()
	OnRotate(o event.Orientation)
	OnStylusEvent(s event.StylusStatus)
}

// Surface is the slice of the action surface the default handler uses.
type Surface interface {
	ListInputDevices() ([]string, error)
	ListWacomDevices() ([]string, error)
	EnableDevice(name string) error
	DisableDevice(name string) error
	SetDisplayRotation(rotation string) error
	SetDeviceRotation(device, rotation string) error
	StartKeyboard(command []string) (x11.Process, error)
}

// Options configures device discovery and the on-screen keyboard.
type Options struct {
	// Name substrings resolving each required device role.
	StylusPattern      string
	FingerTouchPattern string
	TrackpointPattern  string
	TouchpadPattern    string

	// KeyboardCommand launches the on-screen keyboard; empty disables it.
	KeyboardCommand []string
}

// DefaultOptions matches the usual ThinkPad-class convertible naming.
func DefaultOptions() Options {
	return Options{
		StylusPattern:      "stylus",
		FingerTouchPattern: "Finger touch",
		TrackpointPattern:  "TrackPoint",
		TouchpadPattern:    "TouchPad",
		KeyboardCommand:    []string{"onboard"},
	}
}

// Orientation vocabularies of the two rotation surfaces.
var (
	displayRotation = map[event.Orientation]string{
		event.OrientationRightUp:  "right",
		event.OrientationNormal:   "normal",
		event.OrientationBottomUp: "inverted",
		event.OrientationLeftUp:   "left",
	}

	wacomRotation = map[event.Orientation]string{
		event.OrientationRightUp:  "cw",
		event.OrientationNormal:   "none",
		event.OrientationBottomUp: "half",
		event.OrientationLeftUp:   "ccw",
	}
)

// DeviceHandler is the default Handler implementation.
type DeviceHandler struct {
	log     *logging.Logger
	surface Surface
	opts    Options

	mode Mode

	wacom       []string
	stylus      string
	fingerTouch string
	trackpoint  string
	touchpad    string

	// keyboard is the live on-screen keyboard, nil when none is running.
	keyboard x11.Process
}

// NewDeviceHandler discovers the controllable devices once and returns the
// handler in laptop mode. A missing required device role is a fatal startup
// error.
func NewDeviceHandler(log *logging.Logger, surface Surface, opts Options) (*DeviceHandler, error) {
	h := &DeviceHandler{
		log:     log.WithComponent("handler"),
		surface: surface,
		opts:    opts,
		mode:    ModeLaptop,
	}

	wacom, err := surface.ListWacomDevices()
	if err != nil {
		return nil, fmt.Errorf("list stylus-class devices: %w", err)
	}
	h.wacom = wacom
	for _, d := range wacom {
		h.log.Info("wacom device detected", "device", d)
	}

	inputs, err := surface.ListInputDevices()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}

	roles := []struct {
		pattern string
		target  *string
		name    string
	}{
		{opts.StylusPattern, &h.stylus, "stylus"},
		{opts.FingerTouchPattern, &h.fingerTouch, "finger touch"},
		{opts.TrackpointPattern, &h.trackpoint, "trackpoint"},
		{opts.TouchpadPattern, &h.touchpad, "touchpad"},
	}
	for _, role := range roles {
		device, ok := findDevice(inputs, role.pattern)
		if !ok {
			return nil, fmt.Errorf("required %s device matching %q not found", role.name, role.pattern)
		}
		*role.target = device
	}

	h.log.Info("input devices detected",
		"stylus", h.stylus,
		"finger_touch", h.fingerTouch,
		"trackpoint", h.trackpoint,
		"touchpad", h.touchpad,
	)
	return h, nil
}

func findDevice(devices []string, pattern string) (string, bool) {
	for _, d := range devices {
		if strings.Contains(d, pattern) {
			return d, true
		}
	}
	return "", false
}

// Mode returns the current device mode.
func (h *DeviceHandler) Mode() Mode {
	return h.mode
}

// OnModeChange flips the mode unconditionally. Two consecutive changes
// always toggle twice.
func (h *DeviceHandler) OnModeChange() {
	if h.mode == ModeLaptop {
		h.mode = ModeTablet
		h.OnTabletMode()
	} else {
		h.mode = ModeLaptop
		h.OnLaptopMode()
	}
}

// OnTabletMode disables the pointer devices and best-effort launches the
// on-screen keyboard.
func (h *DeviceHandler) OnTabletMode() {
	h.log.Debug("on tablet mode")

	for _, device := range []string{h.trackpoint, h.touchpad} {
		if err := h.surface.DisableDevice(device); err != nil {
			h.log.Warn("disable device failed", "device", device, "error", err)
		}
	}

	if len(h.opts.KeyboardCommand) == 0 {
		return
	}
	kb, err := h.surface.StartKeyboard(h.opts.KeyboardCommand)
	if err != nil {
		h.log.Warn("starting on-screen keyboard failed", "error", err)
		return
	}
	h.keyboard = kb
}

// OnLaptopMode re-enables the pointer devices and best-effort terminates the
// on-screen keyboard. Stopping with no live keyboard is a no-op: the launch
// may have failed on the matching tablet-mode entry.
func (h *DeviceHandler) OnLaptopMode() {
	h.log.Debug("on laptop mode")

	for _, device := range []string{h.trackpoint, h.touchpad} {
		if err := h.surface.EnableDevice(device); err != nil {
			h.log.Warn("enable device failed", "device", device, "error", err)
		}
	}

	if h.keyboard == nil {
		h.log.Debug("no on-screen keyboard to stop")
		return
	}
	if err := h.keyboard.Terminate(); err != nil {
		h.log.Warn("terminating on-screen keyboard failed", "error", err)
	}
	h.keyboard = nil
}

// OnRotate maps the orientation through both fixed vocabularies and rotates
// the display plus every stylus-class device.
func (h *DeviceHandler) OnRotate(o event.Orientation) {
	h.log.Debug("on rotate", "orientation", o)

	if err := h.surface.SetDisplayRotation(displayRotation[o]); err != nil {
		h.log.Warn("display rotation failed", "orientation", o, "error", err)
	}
	for _, device := range h.wacom {
		if err := h.surface.SetDeviceRotation(device, wacomRotation[o]); err != nil {
			h.log.Warn("device rotation failed", "device", device, "orientation", o, "error", err)
		}
	}
}

// OnStylusEvent only logs; an extension point for custom handlers.
func (h *DeviceHandler) OnStylusEvent(s event.StylusStatus) {
	h.log.Debug("on stylus event", "status", s)
}

var _ Handler = (*DeviceHandler)(nil)
