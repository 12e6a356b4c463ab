package marketdata

import "github.com/rishav/gosbe/internal/queue/spsc"

// MaxPendingPerInstrument bounds the per-instrument FIFO pending-update
// queue. A recovering instrument needs recent history more than ancient
// history, so once the cap is reached the oldest buffered update is
// dropped to make room and the instrument's overflow counter increments
// (visible via Handler.Stats).
const MaxPendingPerInstrument = 10000

type instrument struct {
	book         *Book
	state        State
	expectedNext uint64
	pending      []IncrementalUpdate
	overflows    uint64
}

func newInstrument() *instrument {
	return &instrument{book: NewBook(), state: Initializing}
}

func (ins *instrument) buffer(u IncrementalUpdate) {
	if len(ins.pending) >= MaxPendingPerInstrument {
		ins.pending = ins.pending[1:]
		ins.overflows++
	}
	ins.pending = append(ins.pending, u)
}

// Handler drives the per-instrument state machine. It owns every
// instrument's book, lifecycle state, and pending queue, and is meant to
// be driven by exactly one goroutine — or externally serialized by the
// caller — since it is owned by a single logical handler; Handler
// itself holds no lock.
type Handler struct {
	instruments map[uint32]*instrument
	events      eventPublisher
}

// NewHandler returns a handler that publishes events through sender.
// sender may be nil, in which case events are simply not published.
func NewHandler(sender *spsc.Sender[MarketDataEvent]) *Handler {
	return &Handler{
		instruments: make(map[uint32]*instrument),
		events:      newEventPublisher(sender),
	}
}

// Subscribe begins tracking instrumentID, starting in Initializing.
// Calling Subscribe again for an instrument already tracked is a no-op —
// resubscribing does not reset an in-progress book, so a duplicate
// subscribe request from a reconnecting client can't silently discard
// live state.
func (h *Handler) Subscribe(instrumentID uint32) {
	if _, ok := h.instruments[instrumentID]; ok {
		return
	}
	h.instruments[instrumentID] = newInstrument()
}

// Unsubscribe stops tracking instrumentID and discards its book.
func (h *Handler) Unsubscribe(instrumentID uint32) {
	delete(h.instruments, instrumentID)
}

// OnIncremental applies one incremental update according to the
// instrument's current lifecycle state.
func (h *Handler) OnIncremental(u IncrementalUpdate) error {
	ins, ok := h.instruments[u.InstrumentID]
	if !ok {
		return HandlerError{Message: "incremental for unsubscribed instrument"}
	}

	switch ins.state {
	case Initializing:
		ins.buffer(u)
		return nil

	case Active:
		switch {
		case u.SeqNum < ins.expectedNext:
			return nil // old/duplicate, discard silently
		case u.SeqNum == ins.expectedNext:
			h.applyIncremental(ins, u)
			ins.expectedNext++
			return nil
		default:
			from, to := ins.expectedNext, u.SeqNum
			h.events.publish(MarketDataEvent{Kind: GapDetected, InstrumentID: u.InstrumentID, GapFrom: from, GapTo: to})
			h.transition(ins, u.InstrumentID, Recovering)
			ins.buffer(u)
			return nil
		}

	case Recovering:
		ins.buffer(u)
		return nil

	case Stale:
		h.transition(ins, u.InstrumentID, Recovering)
		ins.buffer(u)
		return nil

	default:
		return HandlerError{Message: "unknown instrument state"}
	}
}

// applyIncremental applies u to ins.book and publishes BookUpdated, plus
// TopOfBookChanged if the best bid or best ask moved.
func (h *Handler) applyIncremental(ins *instrument, u IncrementalUpdate) {
	prevBid, prevAsk := ins.book.BestBid(), ins.book.BestAsk()
	ins.book.ApplyLevel(u.Side, PriceLevel{Price: u.Price, Quantity: u.Quantity, OrderCount: u.OrderCount})
	ins.book.lastUpdateSeq = u.SeqNum
	h.events.publish(MarketDataEvent{Kind: BookUpdated, InstrumentID: u.InstrumentID})
	if topChanged(prevBid, ins.book.BestBid()) || topChanged(prevAsk, ins.book.BestAsk()) {
		h.events.publish(MarketDataEvent{Kind: TopOfBookChanged, InstrumentID: u.InstrumentID})
	}
}

func topChanged(before, after *PriceLevel) bool {
	switch {
	case before == nil && after == nil:
		return false
	case before == nil || after == nil:
		return true
	default:
		return *before != *after
	}
}

// OnSnapshot applies a full snapshot: it replaces the book, replays
// every buffered incremental whose sequence is at or after the
// snapshot's, sets expectedNext past the snapshot, and transitions to
// Active. The snapshot-plus-replay is treated as one atomic operation
// that emits a single BookUpdated, preceded by StateChanged(Active) when
// the instrument was not already Active — replayed incrementals do not
// additionally raise TopOfBookChanged, even if top-of-book moved during
// replay.
func (h *Handler) OnSnapshot(snap Snapshot) error {
	ins, ok := h.instruments[snap.InstrumentID]
	if !ok {
		ins = newInstrument()
		h.instruments[snap.InstrumentID] = ins
	}

	ins.book.ApplySnapshot(snap)
	ins.expectedNext = snap.SeqNum + 1

	replay := ins.pending
	ins.pending = nil
	for _, u := range replay {
		if u.SeqNum >= snap.SeqNum {
			ins.book.ApplyLevel(u.Side, PriceLevel{Price: u.Price, Quantity: u.Quantity, OrderCount: u.OrderCount})
			ins.book.lastUpdateSeq = u.SeqNum
			if u.SeqNum >= ins.expectedNext {
				ins.expectedNext = u.SeqNum + 1
			}
		}
	}

	prevState := ins.state
	ins.state = Active
	if prevState != Active {
		h.events.publish(MarketDataEvent{Kind: StateChanged, InstrumentID: snap.InstrumentID, NewState: Active})
	}
	h.events.publish(MarketDataEvent{Kind: BookUpdated, InstrumentID: snap.InstrumentID})
	return nil
}

// MarkStale transitions instrumentID from Active to Stale, per an
// external heartbeat-timeout signal. It is a no-op for any other
// current state, matching the state diagram's single Active->Stale
// edge.
func (h *Handler) MarkStale(instrumentID uint32) error {
	ins, ok := h.instruments[instrumentID]
	if !ok {
		return HandlerError{Message: "mark_stale for unsubscribed instrument"}
	}
	if ins.state == Active {
		h.transition(ins, instrumentID, Stale)
	}
	return nil
}

func (h *Handler) transition(ins *instrument, instrumentID uint32, to State) {
	ins.state = to
	h.events.publish(MarketDataEvent{Kind: StateChanged, InstrumentID: instrumentID, NewState: to})
}

// GetBook returns instrumentID's book and true, or nil and false if not
// subscribed.
func (h *Handler) GetBook(instrumentID uint32) (*Book, bool) {
	ins, ok := h.instruments[instrumentID]
	if !ok {
		return nil, false
	}
	return ins.book, true
}

// GetState returns instrumentID's lifecycle state and true, or the zero
// state and false if not subscribed.
func (h *Handler) GetState(instrumentID uint32) (State, bool) {
	ins, ok := h.instruments[instrumentID]
	if !ok {
		return 0, false
	}
	return ins.state, true
}

// Stats reports, per subscribed instrument, how many pending updates
// have been dropped due to the MaxPendingPerInstrument cap.
func (h *Handler) Stats() map[uint32]uint64 {
	out := make(map[uint32]uint64, len(h.instruments))
	for id, ins := range h.instruments {
		if ins.overflows > 0 {
			out[id] = ins.overflows
		}
	}
	return out
}
