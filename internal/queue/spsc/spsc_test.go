package spsc

import "testing"

// TestFIFOOrdering checks the SPSC FIFO-ordering invariant.
func TestFIFOOrdering(t *testing.T) {
	tx, rx := Channel[int](16)
	for i := 1; i <= 10; i++ {
		if !tx.Send(i) {
			t.Fatalf("Send(%d) unexpectedly failed", i)
		}
	}
	for i := 1; i <= 10; i++ {
		v, ok := rx.Recv()
		if !ok || v != i {
			t.Errorf("Recv %d: got (%d, %v), want (%d, true)", i, v, ok, i)
		}
	}
	if _, ok := rx.Recv(); ok {
		t.Error("expected empty ring after draining all sends")
	}
}

// TestCapacity checks that a channel of capacity 4 accepts four sends,
// rejects the fifth, and accepts a fifth after one recv.
func TestCapacity(t *testing.T) {
	tx, rx := Channel[int](4)
	for i := 1; i <= 4; i++ {
		if !tx.Send(i) {
			t.Fatalf("Send(%d) should have succeeded", i)
		}
	}
	if tx.Send(5) {
		t.Fatal("Send(5) should have failed: ring is full")
	}
	if v, ok := rx.Recv(); !ok || v != 1 {
		t.Fatalf("Recv: got (%d, %v), want (1, true)", v, ok)
	}
	if !tx.Send(5) {
		t.Fatal("Send(5) should succeed after freeing a slot")
	}
}

func TestDrain(t *testing.T) {
	tx, rx := Channel[string](8)
	tx.Send("a")
	tx.Send("b")
	tx.Send("c")
	got := rx.Drain()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Drain: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drain[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
	if len(rx.Drain()) != 0 {
		t.Error("second Drain should be empty")
	}
}

func TestRecvSpinLimited(t *testing.T) {
	_, rx := Channel[int](4)
	if _, ok := rx.RecvSpinLimited(100); ok {
		t.Error("expected no item on an empty, never-sent-to ring")
	}
}

func TestCloseDisconnects(t *testing.T) {
	tx, rx := Channel[int](4)
	tx.Send(1)
	tx.Close()
	if v, ok := rx.Recv(); !ok || v != 1 {
		t.Fatal("buffered item should still be receivable after sender close")
	}
	if _, ok := rx.RecvSpin(); ok {
		t.Error("RecvSpin should report disconnected once drained and closed")
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const n = 100_000
	tx, rx := Channel[int](1024)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			for !tx.Send(i) {
			}
		}
	}()

	for i := 0; i < n; i++ {
		v, ok := rx.RecvSpin()
		if !ok {
			t.Fatalf("RecvSpin failed before disconnect at i=%d", i)
		}
		if v != i {
			t.Fatalf("out-of-order delivery: got %d, want %d", v, i)
		}
	}
	<-done
}
