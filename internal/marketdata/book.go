package marketdata

// Book is a single instrument's order book: two price-sorted sides plus
// the sequence number of the last applied snapshot or update. Deciding
// whether an incoming update is old, expected, or a gap is done by
// Handler from its own per-instrument expected sequence.
//
// Bids are kept in a descending tree so Best() is the highest price;
// asks in an ascending tree so Best() is the lowest — matching the
// "bid side ascending by price, best = last entry; ask side ascending,
// best = first entry" wording by storing each side the way that makes
// its "best" access O(1) rather than literally replicating the
// last/first-entry walk.
type Book struct {
	bids          *priceTree
	asks          *priceTree
	lastUpdateSeq uint64
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{
		bids: newPriceTree(true),
		asks: newPriceTree(false),
	}
}

func (b *Book) treeFor(side Side) *priceTree {
	if side == Bid {
		return b.bids
	}
	return b.asks
}

// ApplyLevel applies one price-level change: Quantity == 0 deletes the
// level, otherwise it is inserted or replaced.
func (b *Book) ApplyLevel(side Side, level PriceLevel) {
	t := b.treeFor(side)
	if level.Quantity == 0 {
		t.Delete(level.Price)
		return
	}
	lvl := level
	t.Upsert(&lvl)
}

// ApplySnapshot clears both sides and installs the provided levels,
// updating the book's last-applied sequence number.
func (b *Book) ApplySnapshot(snap Snapshot) {
	b.bids = newPriceTree(true)
	b.asks = newPriceTree(false)
	for _, lvl := range snap.Bids {
		if lvl.Quantity == 0 {
			continue
		}
		v := lvl
		b.bids.Upsert(&v)
	}
	for _, lvl := range snap.Asks {
		if lvl.Quantity == 0 {
			continue
		}
		v := lvl
		b.asks.Upsert(&v)
	}
	b.lastUpdateSeq = snap.SeqNum
}

// BestBid returns the highest-priced bid level, or nil if there are none.
func (b *Book) BestBid() *PriceLevel { return b.bids.Best() }

// BestAsk returns the lowest-priced ask level, or nil if there are none.
func (b *Book) BestAsk() *PriceLevel { return b.asks.Best() }

// LastUpdateSeq returns the sequence number of the last applied update or
// snapshot.
func (b *Book) LastUpdateSeq() uint64 { return b.lastUpdateSeq }

// Depth returns up to n levels on side, ordered best-to-worst.
func (b *Book) Depth(side Side, n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	t := b.treeFor(side)
	out := make([]PriceLevel, 0, n)
	t.ForEach(func(l *PriceLevel) bool {
		out = append(out, *l)
		return len(out) < n
	})
	return out
}

// Crossed reports whether the book is in the invariant-violating crossed
// state (best bid price > best ask price) — checked by tests and reported
// by mdserver's /book endpoint; a correctly-sequenced feed never produces
// this.
func (b *Book) Crossed() bool {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == nil || ask == nil {
		return false
	}
	return bid.Price > ask.Price
}
