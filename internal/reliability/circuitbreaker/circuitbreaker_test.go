package circuitbreaker

import (
	"testing"
	"time"
)

func TestTripsOpenAfterThreshold(t *testing.T) {
	cb := New("test", 3, 1, time.Minute, nil)

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %s before threshold, want closed", cb.GetState())
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s after threshold, want open", cb.GetState())
	}
	if cb.AllowRequest() {
		t.Fatal("open circuit must reject before cooldown")
	}
}

func TestHalfOpenProbeClosesOrReopens(t *testing.T) {
	cb := New("test", 1, 2, time.Millisecond, nil)

	cb.RecordFailure()
	time.Sleep(5 * time.Millisecond)
	if !cb.AllowRequest() {
		t.Fatal("expected a probe request after cooldown")
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("state = %s after probe, want half-open", cb.GetState())
	}

	// A failed probe re-opens immediately.
	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s after failed probe, want open", cb.GetState())
	}

	// Enough successful probes close the circuit.
	time.Sleep(5 * time.Millisecond)
	cb.AllowRequest()
	cb.RecordSuccess()
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %s after successful probes, want closed", cb.GetState())
	}
}
