package monitoring

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op that must not reach the previous logger.
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}

func TestSetLogWriters(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops, diag bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag})

	Opsf("run %s started", "abc")
	Diagf("batch=%d mse=%.3f", 3, 0.125)
	Tracef("dropped because trace is disabled")

	if !strings.Contains(ops.String(), "[gridswarm] ") || !strings.Contains(ops.String(), "run abc started") {
		t.Errorf("ops stream = %q", ops.String())
	}
	if !strings.Contains(diag.String(), "batch=3 mse=0.125") {
		t.Errorf("diag stream = %q", diag.String())
	}
	if strings.Contains(ops.String()+diag.String(), "dropped") {
		t.Error("trace output leaked into another stream")
	}
	if TraceEnabled() {
		t.Error("TraceEnabled() should be false with no trace writer")
	}
	if !DiagEnabled() {
		t.Error("DiagEnabled() should be true once a diag writer is set")
	}

	var trace bytes.Buffer
	SetLogWriters(LogWriters{Trace: &trace})
	if !TraceEnabled() {
		t.Error("TraceEnabled() should be true once a trace writer is set")
	}
	if DiagEnabled() {
		t.Error("DiagEnabled() should be false with no diag writer")
	}
	Tracef("sample %d", 7)
	if !strings.Contains(trace.String(), "sample 7") {
		t.Errorf("trace stream = %q", trace.String())
	}
}

func TestStreamsDisabledByDefault(t *testing.T) {
	SetLogWriters(LogWriters{})
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("disabled stream panicked: %v", r)
		}
	}()
	Opsf("nothing")
	Diagf("nothing")
	Tracef("nothing")
}
