package watch

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"convertd/internal/event"
	"convertd/internal/logging"
	"convertd/internal/queue"
)

// iio-sensor-proxy well-known names.
const (
	sensorService   = "net.hadess.SensorProxy"
	sensorIface     = "net.hadess.SensorProxy"
	sensorPath      = dbus.ObjectPath("/net/hadess/SensorProxy")
	propsIface      = "org.freedesktop.DBus.Properties"
	propsChanged    = propsIface + ".PropertiesChanged"
	orientationProp = "AccelerometerOrientation"
)

// SensorWatcher subscribes to accelerometer orientation changes published by
// iio-sensor-proxy on the system bus and emits Rotate events. Claiming the
// accelerometer holds the physical sensor for the process lifetime.
type SensorWatcher struct {
	// Connect is swappable for tests; defaults to dbus.ConnectSystemBus.
	Connect func() (*dbus.Conn, error)

	queue *queue.Queue
	log   *logging.Logger
}

// NewSensorWatcher creates a watcher on the system bus.
func NewSensorWatcher(q *queue.Queue, log *logging.Logger) *SensorWatcher {
	return &SensorWatcher{
		Connect: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() },
		queue:   q,
		log:     log.WithComponent("sensor-watcher"),
	}
}

// Run subscribes, claims the accelerometer, and loops over the signal
// channel forever. An absent bus or sensor service fails immediately.
func (w *SensorWatcher) Run() error {
	conn, err := w.Connect()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(sensorPath),
		dbus.WithMatchInterface(propsIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("subscribe to property changes: %w", err)
	}

	obj := conn.Object(sensorService, sensorPath)
	if call := obj.Call(sensorIface+".ClaimAccelerometer", 0); call.Err != nil {
		return fmt.Errorf("claim accelerometer: %w", call.Err)
	}

	// godbus drops signals rather than block when this channel is full.
	// A dropped orientation change is superseded by the next one.
	signals := make(chan *dbus.Signal, 64)
	conn.Signal(signals)

	for sig := range signals {
		o, ok := orientationFromSignal(sig)
		if !ok {
			continue
		}
		w.log.Debug("orientation change", "orientation", o)
		w.queue.Push(event.Rotate(o))
	}
	return errors.New("system bus signal stream closed")
}

// orientationFromSignal extracts a valid orientation from a
// PropertiesChanged signal. Signals without the accelerometer property, and
// property values outside the fixed vocabulary, are ignored.
func orientationFromSignal(sig *dbus.Signal) (event.Orientation, bool) {
	if sig == nil || sig.Name != propsChanged || len(sig.Body) < 2 {
		return "", false
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return "", false
	}
	variant, ok := changed[orientationProp]
	if !ok {
		return "", false
	}
	raw, ok := variant.Value().(string)
	if !ok {
		return "", false
	}
	o, err := event.ParseOrientation(raw)
	if err != nil {
		return "", false
	}
	return o, true
}
