package marketdata

import "github.com/rishav/gosbe/internal/queue/spsc"

// EventKind discriminates the four shapes of MarketDataEvent emitted by a
// handler, generalized from separate per-data-type publish channels
// (an L1/L2/trade publisher style) down to a single tagged-union event
// stream carried over one SPSC sender.
type EventKind int

const (
	BookUpdated EventKind = iota
	TopOfBookChanged
	StateChanged
	GapDetected
)

func (k EventKind) String() string {
	switch k {
	case BookUpdated:
		return "BookUpdated"
	case TopOfBookChanged:
		return "TopOfBookChanged"
	case StateChanged:
		return "StateChanged"
	case GapDetected:
		return "GapDetected"
	default:
		return "Unknown"
	}
}

// MarketDataEvent is the single event type published for every book or
// state change a handler makes.
type MarketDataEvent struct {
	Kind         EventKind
	InstrumentID uint32
	NewState     State    // set when Kind == StateChanged
	GapFrom      uint64   // set when Kind == GapDetected
	GapTo        uint64   // set when Kind == GapDetected
}

// eventPublisher wraps the handler's event sender. Publish never blocks
// and never reports failure to the caller: if the event channel is
// full, events are dropped with no backpressure on the handler, the
// same silent-drop-on-full contract a per-subscriber select/default
// publisher applies, here applied to the single SPSC sink's
// non-blocking Send.
type eventPublisher struct {
	sender *spsc.Sender[MarketDataEvent]
}

func newEventPublisher(sender *spsc.Sender[MarketDataEvent]) eventPublisher {
	return eventPublisher{sender: sender}
}

func (p eventPublisher) publish(ev MarketDataEvent) {
	if p.sender == nil {
		return
	}
	p.sender.Send(ev)
}
