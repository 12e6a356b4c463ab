package marketdata

import (
	"testing"

	"github.com/rishav/gosbe/internal/queue/spsc"
)

func newTestHandler(t *testing.T) (*Handler, *spsc.Receiver[MarketDataEvent]) {
	t.Helper()
	sender, receiver := spsc.Channel[MarketDataEvent](256)
	return NewHandler(sender), receiver
}

func drainKinds(r *spsc.Receiver[MarketDataEvent]) []EventKind {
	var kinds []EventKind
	for _, ev := range r.Drain() {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// TestHandlerBookState matches the book-state scenario: a subscriber
// buffers incrementals while Initializing, then a snapshot arrives and
// the replayed-plus-applied book reflects every update whose sequence is
// at or after the snapshot's.
func TestHandlerBookState(t *testing.T) {
	h, events := newTestHandler(t)
	h.Subscribe(1)

	if err := h.OnIncremental(IncrementalUpdate{InstrumentID: 1, SeqNum: 3, Side: Bid, Price: 9900, Quantity: 10, OrderCount: 1}); err != nil {
		t.Fatalf("unexpected error buffering incremental: %v", err)
	}
	if err := h.OnIncremental(IncrementalUpdate{InstrumentID: 1, SeqNum: 4, Side: Bid, Price: 10000, Quantity: 5, OrderCount: 1}); err != nil {
		t.Fatalf("unexpected error buffering incremental: %v", err)
	}

	if st, _ := h.GetState(1); st != Initializing {
		t.Fatalf("expected Initializing before any snapshot, got %v", st)
	}
	events.Drain() // discard anything buffered so far (none expected)

	if err := h.OnSnapshot(Snapshot{
		InstrumentID: 1,
		SeqNum:       3,
		Bids:         []PriceLevel{{Price: 9900, Quantity: 10, OrderCount: 1}},
	}); err != nil {
		t.Fatalf("unexpected error applying snapshot: %v", err)
	}

	if st, _ := h.GetState(1); st != Active {
		t.Fatalf("expected Active after snapshot, got %v", st)
	}

	book, ok := h.GetBook(1)
	if !ok {
		t.Fatalf("expected a book for instrument 1")
	}
	if got := book.BestBid(); got == nil || got.Price != 10000 {
		t.Fatalf("expected replayed incremental (seq 4) to move best bid to 10000, got %+v", got)
	}

	kinds := drainKinds(events)
	if len(kinds) != 2 || kinds[0] != StateChanged || kinds[1] != BookUpdated {
		t.Fatalf("expected exactly [StateChanged, BookUpdated], got %v", kinds)
	}
}

// TestHandlerGapDetection matches the gap scenario: once Active, an
// incremental that skips ahead of expectedNext raises GapDetected and
// moves the instrument to Recovering rather than applying the update.
func TestHandlerGapDetection(t *testing.T) {
	h, events := newTestHandler(t)
	h.Subscribe(1)

	if err := h.OnSnapshot(Snapshot{InstrumentID: 1, SeqNum: 10}); err != nil {
		t.Fatalf("unexpected error applying snapshot: %v", err)
	}
	events.Drain()

	if err := h.OnIncremental(IncrementalUpdate{InstrumentID: 1, SeqNum: 11, Side: Bid, Price: 100, Quantity: 1, OrderCount: 1}); err != nil {
		t.Fatalf("unexpected error applying seq 11: %v", err)
	}
	// the first bid ever applied also moves the top of book, so both
	// BookUpdated and TopOfBookChanged fire
	drained := drainKinds(events)
	if len(drained) != 2 || drained[0] != BookUpdated || drained[1] != TopOfBookChanged {
		t.Fatalf("expected [BookUpdated, TopOfBookChanged] for the in-sequence update, got %v", drained)
	}

	// skip straight to seq 15: 12..14 are missing, so GapDetected carries
	// the expected sequence (12) and the arriving one (15)
	if err := h.OnIncremental(IncrementalUpdate{InstrumentID: 1, SeqNum: 15, Side: Bid, Price: 101, Quantity: 1, OrderCount: 1}); err != nil {
		t.Fatalf("unexpected error on gapped incremental: %v", err)
	}

	if st, _ := h.GetState(1); st != Recovering {
		t.Fatalf("expected Recovering after a detected gap, got %v", st)
	}

	gotGap, gotTransition := false, false
	for _, ev := range events.Drain() {
		switch ev.Kind {
		case GapDetected:
			gotGap = true
			if ev.GapFrom != 12 || ev.GapTo != 15 {
				t.Fatalf("expected gap [12,15], got [%d,%d]", ev.GapFrom, ev.GapTo)
			}
		case StateChanged:
			gotTransition = true
			if ev.NewState != Recovering {
				t.Fatalf("expected transition to Recovering, got %v", ev.NewState)
			}
		}
	}
	if !gotGap || !gotTransition {
		t.Fatalf("expected both GapDetected and StateChanged events, gotGap=%v gotTransition=%v", gotGap, gotTransition)
	}

	// further incrementals while Recovering are buffered, not applied
	if err := h.OnIncremental(IncrementalUpdate{InstrumentID: 1, SeqNum: 16, Side: Bid, Price: 102, Quantity: 1, OrderCount: 1}); err != nil {
		t.Fatalf("unexpected error buffering during recovery: %v", err)
	}
	if len(events.Drain()) != 0 {
		t.Fatalf("buffered incrementals during recovery must not publish events")
	}
}

func TestHandlerMarkStaleOnlyTransitionsFromActive(t *testing.T) {
	h, events := newTestHandler(t)
	h.Subscribe(1)

	// Initializing -> MarkStale is a no-op
	if err := h.MarkStale(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st, _ := h.GetState(1); st != Initializing {
		t.Fatalf("MarkStale must not affect a non-Active instrument, got %v", st)
	}

	if err := h.OnSnapshot(Snapshot{InstrumentID: 1, SeqNum: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events.Drain()

	if err := h.MarkStale(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st, _ := h.GetState(1); st != Stale {
		t.Fatalf("expected Stale after MarkStale from Active, got %v", st)
	}

	kinds := drainKinds(events)
	if len(kinds) != 1 || kinds[0] != StateChanged {
		t.Fatalf("expected a single StateChanged event, got %v", kinds)
	}
}

func TestHandlerPendingQueueDropsOldestOnOverflow(t *testing.T) {
	h, events := newTestHandler(t)
	h.Subscribe(1)
	defer events.Close()

	for i := uint64(1); i <= MaxPendingPerInstrument+5; i++ {
		if err := h.OnIncremental(IncrementalUpdate{InstrumentID: 1, SeqNum: i, Side: Bid, Price: 100, Quantity: 1, OrderCount: 1}); err != nil {
			t.Fatalf("unexpected error buffering incremental %d: %v", i, err)
		}
	}

	stats := h.Stats()
	if stats[1] != 5 {
		t.Fatalf("expected overflow count 5, got %d", stats[1])
	}
	pending := h.instruments[1].pending
	if len(pending) != MaxPendingPerInstrument {
		t.Fatalf("expected %d buffered updates, got %d", MaxPendingPerInstrument, len(pending))
	}
	if pending[0].SeqNum != 6 {
		t.Fatalf("expected seqs 1..5 dropped (oldest kept is 6), got %d", pending[0].SeqNum)
	}
}

func TestHandlerSubscribeIsIdempotent(t *testing.T) {
	h, _ := newTestHandler(t)
	h.Subscribe(1)
	book, _ := h.GetBook(1)
	book.ApplyLevel(Bid, PriceLevel{Price: 100, Quantity: 1, OrderCount: 1})

	h.Subscribe(1) // must not reset the existing book

	again, _ := h.GetBook(1)
	if again.BestBid() == nil {
		t.Fatalf("resubscribing must not discard the existing book")
	}
}

func TestHandlerOnIncrementalForUnsubscribedInstrumentErrors(t *testing.T) {
	h, _ := newTestHandler(t)
	if err := h.OnIncremental(IncrementalUpdate{InstrumentID: 99, SeqNum: 1}); err == nil {
		t.Fatalf("expected an error for an unsubscribed instrument")
	}
}
