package marketdata

import "container/list"

// Arbitrator deduplicates a stream of sequenced packets delivered
// redundantly over two feeds (A/B) and separately tracks gaps in the
// combined stream — independent of any single instrument's own
// sequencing in Handler.
//
// No LRU library appears anywhere in the retrieved pack, so the bounded
// processed-set is hand-rolled the way every LRU cache is under the
// hood: a doubly-linked list for recency order plus a map for O(1)
// lookup, container/list doing the linked-list bookkeeping.
type Arbitrator struct {
	highestSeen  uint64
	expectedNext uint64
	capacity     int
	order        *list.List
	index        map[uint64]*list.Element
}

// NewArbitrator returns an arbitrator whose processed-set holds at most
// capacity sequence numbers.
func NewArbitrator(capacity int) *Arbitrator {
	if capacity <= 0 {
		capacity = 1
	}
	a := &Arbitrator{
		expectedNext: 1,
		capacity:     capacity,
		order:        list.New(),
		index:        make(map[uint64]*list.Element, capacity),
	}
	return a
}

// ShouldProcess reports whether seq has not already been seen (from
// either feed) and, if so, marks it processed: the first feed to
// deliver a given sequence wins, the duplicate from the other feed is
// rejected.
func (a *Arbitrator) ShouldProcess(seq uint64) bool {
	if _, seen := a.index[seq]; seen {
		return false
	}
	elem := a.order.PushBack(seq)
	a.index[seq] = elem
	if a.order.Len() > a.capacity {
		oldest := a.order.Front()
		a.order.Remove(oldest)
		delete(a.index, oldest.Value.(uint64))
	}
	if seq > a.highestSeen {
		a.highestSeen = seq
	}
	return true
}

// CheckGap compares seq against the arbitrator's expected-next counter.
// If seq is ahead, it reports the closed interval of skipped sequences
// (expectedNext, seq-1) and advances expectedNext to seq+1. If seq is
// exactly expected, it advances expectedNext with no gap reported. If
// seq is behind (a late duplicate), no gap is reported and expectedNext
// is left unchanged.
func (a *Arbitrator) CheckGap(seq uint64) (from, to uint64, gap bool) {
	switch {
	case seq > a.expectedNext:
		from, to = a.expectedNext, seq-1
		a.expectedNext = seq + 1
		return from, to, true
	case seq == a.expectedNext:
		a.expectedNext = seq + 1
		return 0, 0, false
	default:
		return 0, 0, false
	}
}

// HighestSeen returns the largest sequence number ever accepted by
// ShouldProcess.
func (a *Arbitrator) HighestSeen() uint64 { return a.highestSeen }

// ExpectedNext returns the sequence number CheckGap next expects.
func (a *Arbitrator) ExpectedNext() uint64 { return a.expectedNext }

// Reset zeroes the arbitrator's state and sets expectedNext back to 1.
func (a *Arbitrator) Reset() {
	a.highestSeen = 0
	a.expectedNext = 1
	a.order.Init()
	a.index = make(map[uint64]*list.Element, a.capacity)
}
