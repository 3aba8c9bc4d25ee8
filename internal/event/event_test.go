package event

import (
	"errors"
	"testing"
)

func TestParseOrientation(t *testing.T) {
	valid := map[string]Orientation{
		"normal":    OrientationNormal,
		"right-up":  OrientationRightUp,
		"bottom-up": OrientationBottomUp,
		"left-up":   OrientationLeftUp,
	}
	for raw, want := range valid {
		got, err := ParseOrientation(raw)
		if err != nil {
			t.Errorf("ParseOrientation(%q) failed: %v", raw, err)
		}
		if got != want {
			t.Errorf("ParseOrientation(%q) = %q, want %q", raw, got, want)
		}
	}

	for _, raw := range []string{"", "upside-down", "NORMAL", "left_up"} {
		if _, err := ParseOrientation(raw); err == nil {
			t.Errorf("ParseOrientation(%q) should fail", raw)
		}
	}
}

func TestParseStylusStatus(t *testing.T) {
	if s, err := ParseStylusStatus("in"); err != nil || s != StylusIn {
		t.Errorf("ParseStylusStatus(in) = %q, %v", s, err)
	}
	if s, err := ParseStylusStatus("out"); err != nil || s != StylusOut {
		t.Errorf("ParseStylusStatus(out) = %q, %v", s, err)
	}
	if _, err := ParseStylusStatus("near"); err == nil {
		t.Error("ParseStylusStatus(near) should fail")
	}
}

func TestConstructors(t *testing.T) {
	if ev := ModeChange(); ev.Kind != KindModeChange || ev.Time.IsZero() {
		t.Errorf("ModeChange() = %+v", ev)
	}

	if ev := Rotate(OrientationLeftUp); ev.Kind != KindRotate || ev.Orientation != OrientationLeftUp {
		t.Errorf("Rotate() = %+v", ev)
	}

	if ev := Stylus(StylusIn); ev.Kind != KindStylus || ev.Status != StylusIn {
		t.Errorf("Stylus() = %+v", ev)
	}

	cause := errors.New("connection refused")
	ev := WatcherExit("acpi", ReasonError, cause)
	if ev.Kind != KindWatcherExit || ev.Watcher != "acpi" || ev.Reason != ReasonError || !errors.Is(ev.Err, cause) {
		t.Errorf("WatcherExit() = %+v", ev)
	}
}

func TestDetail(t *testing.T) {
	if d := ModeChange().Detail(); d != "" {
		t.Errorf("mode change detail = %q, want empty", d)
	}
	if d := Rotate(OrientationRightUp).Detail(); d != "right-up" {
		t.Errorf("rotate detail = %q", d)
	}
	if d := WatcherExit("sensor", ReasonPanic, errors.New("boom")).Detail(); d != "sensor: uncaught-exception: boom" {
		t.Errorf("exit detail = %q", d)
	}
}
