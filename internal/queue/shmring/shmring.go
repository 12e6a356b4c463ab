// Package shmring implements a cross-process shared-memory SPSC ring: a
// single producer process and a single consumer process exchange
// length-prefixed records through a memory-mapped file, coordinated only
// by two atomic cursors in a shared control block — no kernel IPC
// primitive, no syscall per message.
//
// The control block layout and record framing follow a conventional
// ipc ring-buffer shape: head/tail as a 64-byte-separated pair of
// atomics, capacity/mask for a power-of-2 sized data region, records
// framed as a little-endian u32 length prefix followed by the payload,
// split across the wraparound when necessary. The memory-mapping
// mechanics — attach by path, read/store fields directly on the mapped
// bytes, detach on Close — generalize a SysV shmget/shmat-style key into
// a POSIX mmap'd file via golang.org/x/sys/unix, which needs no
// privileged IPC namespace.
package shmring

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// HeaderSize is the fixed size of the control block at the start of the
// mapped region, in bytes.
const HeaderSize = 128

const (
	offHead     = 0
	offTail     = 64
	offCapacity = 112
	offMask     = 120
)

var (
	// ErrNotPowerOfTwo is returned by Create when capacity isn't a power of two.
	ErrNotPowerOfTwo = errors.New("shmring: capacity must be a power of two")
	// ErrRecordTooLarge is returned by Send when a record cannot ever fit in
	// the ring, regardless of how empty it is.
	ErrRecordTooLarge = errors.New("shmring: record larger than ring capacity")
)

// Ring is a memory-mapped SPSC ring shared between two processes (or,
// within a single process, usable exactly like package spsc). A given Ring
// value should be used from one side only — construct one via Create or
// Open per process, then take either Producer or Consumer from it, not
// both, unless the process is deliberately a loopback test.
type Ring struct {
	file *os.File
	mmap []byte
	data []byte // mmap[HeaderSize:]

	capacity uint64
	mask     uint64
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Create creates (or truncates and reinitializes) the backing file at path
// and maps a ring with the given data-region capacity, which must be a
// power of two.
func Create(path string, capacity int) (*Ring, error) {
	if !isPowerOfTwo(capacity) {
		return nil, ErrNotPowerOfTwo
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shmring: open %s: %w", path, err)
	}
	total := HeaderSize + capacity
	if err := f.Truncate(int64(total)); err != nil {
		f.Close()
		return nil, fmt.Errorf("shmring: truncate %s: %w", path, err)
	}
	r, err := mapRing(f, total)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.capacity = uint64(capacity)
	r.mask = uint64(capacity - 1)
	binary.LittleEndian.PutUint64(r.mmap[offHead:], 0)
	binary.LittleEndian.PutUint64(r.mmap[offTail:], 0)
	binary.LittleEndian.PutUint64(r.mmap[offCapacity:], r.capacity)
	binary.LittleEndian.PutUint64(r.mmap[offMask:], r.mask)
	r.data = r.mmap[HeaderSize:]
	return r, nil
}

// Open attaches to an existing ring previously created with Create,
// reading its capacity and mask from the on-disk control block.
func Open(path string) (*Ring, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shmring: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shmring: stat %s: %w", path, err)
	}
	r, err := mapRing(f, int(info.Size()))
	if err != nil {
		f.Close()
		return nil, err
	}
	r.capacity = binary.LittleEndian.Uint64(r.mmap[offCapacity:])
	r.mask = binary.LittleEndian.Uint64(r.mmap[offMask:])
	r.data = r.mmap[HeaderSize:]
	return r, nil
}

func mapRing(f *os.File, size int) (*Ring, error) {
	b, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shmring: mmap: %w", err)
	}
	return &Ring{file: f, mmap: b}, nil
}

// Close unmaps the region and closes the backing file descriptor. It does
// not remove the file.
func (r *Ring) Close() error {
	err := unix.Munmap(r.mmap)
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

func (r *Ring) headPtr() *uint64 { return (*uint64)(unsafe.Pointer(&r.mmap[offHead])) }
func (r *Ring) tailPtr() *uint64 { return (*uint64)(unsafe.Pointer(&r.mmap[offTail])) }

// Producer returns the write endpoint for this mapped ring.
func (r *Ring) Producer() *Producer { return &Producer{r: r} }

// Consumer returns the read endpoint for this mapped ring.
func (r *Ring) Consumer() *Consumer { return &Consumer{r: r} }

// Producer is the single write endpoint of a shared ring.
type Producer struct{ r *Ring }

// recordSize is the on-wire size of a record: a 4-byte length prefix plus
// the payload itself.
func recordSize(n int) uint64 { return 4 + uint64(n) }

// Send writes a length-prefixed record. It returns false if there isn't
// currently enough free space; the caller keeps ownership of data.
func (p *Producer) Send(data []byte) (bool, error) {
	r := p.r
	needed := recordSize(len(data))
	if needed > r.capacity {
		return false, ErrRecordTooLarge
	}
	head := atomic.LoadUint64(r.headPtr())
	tail := atomic.LoadUint64(r.tailPtr())
	if r.capacity-(head-tail) < needed {
		return false, nil
	}

	offset := head & r.mask
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	offset = writeWrapped(r.data, offset, lenBuf[:], r.capacity)
	writeWrapped(r.data, offset, data, r.capacity)

	atomic.StoreUint64(r.headPtr(), head+needed)
	return true, nil
}

// Available reports how many bytes of record payload (accounting for
// framing) the ring currently has free.
func (p *Producer) Available() uint64 {
	r := p.r
	head := atomic.LoadUint64(r.headPtr())
	tail := atomic.LoadUint64(r.tailPtr())
	return r.capacity - (head - tail)
}

// Consumer is the single read endpoint of a shared ring.
type Consumer struct{ r *Ring }

// Recv reads the next record, if any. It allocates a fresh slice per call;
// callers on a latency-sensitive path that want to avoid that allocation
// should read records in bulk via a pooled buffer and the same length-prefix
// framing directly.
func (c *Consumer) Recv() ([]byte, bool) {
	r := c.r
	tail := atomic.LoadUint64(r.tailPtr())
	head := atomic.LoadUint64(r.headPtr())
	if tail >= head {
		return nil, false
	}
	offset := tail & r.mask
	lenBuf := readWrapped(r.data, offset, 4, r.capacity)
	length := binary.LittleEndian.Uint32(lenBuf)
	dataOffset := (offset + 4) & r.mask
	data := readWrapped(r.data, dataOffset, uint64(length), r.capacity)

	consumed := recordSize(int(length))
	atomic.StoreUint64(r.tailPtr(), tail+consumed)
	return data, true
}

// Available reports how many bytes (framing included) are currently
// readable.
func (c *Consumer) Available() uint64 {
	r := c.r
	tail := atomic.LoadUint64(r.tailPtr())
	head := atomic.LoadUint64(r.headPtr())
	return head - tail
}

// writeWrapped copies src into data starting at offset (already masked into
// [0,capacity)), splitting across the end of the buffer if necessary, and
// returns the next write offset (masked).
func writeWrapped(data []byte, offset uint64, src []byte, capacity uint64) uint64 {
	n := uint64(len(src))
	if offset+n <= capacity {
		copy(data[offset:offset+n], src)
	} else {
		first := capacity - offset
		copy(data[offset:capacity], src[:first])
		copy(data[0:n-first], src[first:])
	}
	return (offset + n) & (capacity - 1)
}

// readWrapped returns n bytes starting at offset, splitting across the end
// of the buffer if necessary.
func readWrapped(data []byte, offset uint64, n uint64, capacity uint64) []byte {
	out := make([]byte, n)
	if offset+n <= capacity {
		copy(out, data[offset:offset+n])
	} else {
		first := capacity - offset
		copy(out[:first], data[offset:capacity])
		copy(out[first:], data[0:n-first])
	}
	return out
}
