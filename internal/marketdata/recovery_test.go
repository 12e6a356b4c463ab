package marketdata

import (
	"testing"
	"time"
)

func TestRecoveryTrackerRequestIsIdempotentWhileOutstanding(t *testing.T) {
	tr := NewRecoveryTracker()
	now := time.Unix(0, 0)

	tr.RequestRecovery(1, 5, 10, now)
	if !tr.IsRecovering(1) {
		t.Fatalf("expected instrument 1 to be recovering")
	}

	// a second request for the same instrument while one is outstanding
	// must not replace the original request window
	tr.RequestRecovery(1, 100, 200, now.Add(time.Second))

	expired := tr.CheckTimeouts(now.Add(time.Hour), time.Millisecond)
	if len(expired) != 1 || expired[0].StartSeq != 5 || expired[0].EndSeq != 10 {
		t.Fatalf("expected the original [5,10] request to survive, got %+v", expired)
	}
}

func TestRecoveryTrackerCompleteClearsState(t *testing.T) {
	tr := NewRecoveryTracker()
	now := time.Unix(0, 0)

	tr.RequestRecovery(1, 5, 10, now)
	tr.CompleteRecovery(1)

	if tr.IsRecovering(1) {
		t.Fatalf("expected instrument 1 to no longer be recovering after completion")
	}
	if expired := tr.CheckTimeouts(now.Add(time.Hour), time.Nanosecond); len(expired) != 0 {
		t.Fatalf("expected no pending requests after completion, got %+v", expired)
	}
}

func TestRecoveryTrackerCheckTimeoutsOnlyExpiresOld(t *testing.T) {
	tr := NewRecoveryTracker()
	now := time.Unix(0, 0)

	tr.RequestRecovery(1, 0, 1, now)
	tr.RequestRecovery(2, 0, 1, now.Add(time.Minute))

	expired := tr.CheckTimeouts(now.Add(2*time.Minute), 90*time.Second)
	if len(expired) != 1 || expired[0].InstrumentID != 1 {
		t.Fatalf("expected only instrument 1 to have timed out, got %+v", expired)
	}
	if !tr.IsRecovering(2) {
		t.Fatalf("instrument 2's request should still be outstanding")
	}
}
