// Package mailbox implements the per-participant bounded FIFO message
// queue: the Go-native equivalent of the original's POSIX mqueue, backed
// by a shared-memory segment instead of a kernel queue so it works the
// same way on any host this repo targets.
package mailbox

import (
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/abhinavnagar29/synctext/internal/peername"
	"github.com/abhinavnagar29/synctext/internal/shm"
	"github.com/abhinavnagar29/synctext/internal/wire"
)

// Capacity is the maximum number of in-flight messages a mailbox holds,
// matching the original's MSG_MAX.
const Capacity = 10

const (
	headerSize = 12 // head, tail, count — each a uint32
	slotSize   = wire.Size
	// SegmentSize is the total byte size of a mailbox segment.
	SegmentSize = headerSize + Capacity*slotSize
)

// ErrFull is returned by Send when the mailbox has Capacity messages
// already buffered and undelivered.
var ErrFull = errors.New("mailbox: full")

// ErrEmpty is returned by Receive when no message is buffered.
var ErrEmpty = errors.New("mailbox: empty")

// Name returns the mailbox's shared-memory segment name for userID.
func Name(userID string) string { return peername.MailboxSegment(userID) }

// Mailbox is an open mapping of one participant's message queue.
type Mailbox struct {
	seg *shm.Segment
	dir string
}

// Create creates (or reopens) the mailbox for userID under dir. Only the
// owning participant should call Create; any peer may later call OpenSend
// to enqueue into it.
func Create(dir, userID string) (*Mailbox, error) {
	seg, err := shm.OpenOrCreate(dir, Name(userID), SegmentSize)
	if err != nil {
		return nil, err
	}
	return &Mailbox{seg: seg, dir: dir}, nil
}

// OpenSend opens an existing mailbox for sending. It fails if the
// mailbox's backing segment does not already exist — a peer must have
// created it first.
func OpenSend(dir, userID string) (*Mailbox, error) {
	if !shm.Exists(dir, Name(userID)) {
		return nil, errors.New("mailbox: not found")
	}
	return Create(dir, userID)
}

// Probe reports whether userID's mailbox currently exists, without
// mapping it. This backs the "queue_exists" peer-displayability check
// (spec.md §4.6).
func Probe(dir, userID string) bool { return shm.Exists(dir, Name(userID)) }

func (mb *Mailbox) headPtr() *uint32  { return (*uint32)(unsafe.Pointer(&mb.seg.Data[0])) }
func (mb *Mailbox) tailPtr() *uint32  { return (*uint32)(unsafe.Pointer(&mb.seg.Data[4])) }
func (mb *Mailbox) countPtr() *int32  { return (*int32)(unsafe.Pointer(&mb.seg.Data[8])) }

func (mb *Mailbox) slot(i uint32) []byte {
	off := headerSize + int(i)*slotSize
	return mb.seg.Data[off : off+slotSize]
}

// Send enqueues msg without blocking. Returns ErrFull if the mailbox is at
// Capacity; the caller does not retry (spec.md §4.2).
func (mb *Mailbox) Send(msg *wire.UpdateMessage) error {
	for {
		c := atomic.LoadInt32(mb.countPtr())
		if c >= Capacity {
			return ErrFull
		}
		if atomic.CompareAndSwapInt32(mb.countPtr(), c, c+1) {
			pos := atomic.AddUint32(mb.headPtr(), 1) - 1
			idx := pos % Capacity
			copy(mb.slot(idx), wire.Encode(msg))
			return nil
		}
	}
}

// Receive dequeues the oldest buffered message without blocking. Returns
// ErrEmpty if none is buffered. Only the mailbox's owner should call this.
func (mb *Mailbox) Receive() (wire.UpdateMessage, error) {
	c := atomic.LoadInt32(mb.countPtr())
	if c <= 0 {
		return wire.UpdateMessage{}, ErrEmpty
	}
	pos := atomic.LoadUint32(mb.tailPtr())
	idx := pos % Capacity
	msg, err := wire.Decode(mb.slot(idx))
	if err != nil {
		return wire.UpdateMessage{}, err
	}
	atomic.StoreUint32(mb.tailPtr(), pos+1)
	atomic.AddInt32(mb.countPtr(), -1)
	return msg, nil
}

// Close unmaps the mailbox without removing its backing segment.
func (mb *Mailbox) Close() error { return mb.seg.Close() }

// Unlink removes userID's mailbox backing segment. Only the owning
// participant calls this, at shutdown (spec.md §3 ownership).
func Unlink(dir, userID string) error { return shm.Unlink(dir, Name(userID)) }
