// Package registry implements the shared participant registry: up to
// MaxUsers slots, each holding a participant id and mailbox name, claimed
// lock-free via atomic compare-and-swap on a per-slot status word.
package registry

import (
	"encoding/binary"
	"errors"
	"sync/atomic"
	"unsafe"

	"github.com/abhinavnagar29/synctext/internal/peername"
	"github.com/abhinavnagar29/synctext/internal/shm"
)

const (
	// MaxUsers is the number of slots in the registry segment.
	MaxUsers = 5
	// UserIDMax is the maximum stored length of a participant id.
	UserIDMax = 32
	// QueueNameMax is the maximum stored length of a mailbox name.
	QueueNameMax = 64

	statusFree  int32 = 0
	statusTaken int32 = 1

	magicWant   uint32 = 0x53595854 // 'SYXT'
	versionWant uint32 = 1

	slotSize = 4 + UserIDMax + QueueNameMax
	// SegmentSize is the total byte size of the registry segment: an 8
	// byte header (magic, version) followed by MaxUsers slots.
	SegmentSize = 8 + MaxUsers*slotSize
)

// ErrNoSlots is returned by Register when all MaxUsers slots are taken.
var ErrNoSlots = errors.New("registry: no free slots")

// ErrNotFound is returned by Unregister when user_id has no active slot.
var ErrNotFound = errors.New("registry: user not found")

// Entry is a best-effort copy of one taken slot, as returned by List.
type Entry struct {
	UserID    string
	QueueName string
}

// Handle is an open mapping of the registry segment.
type Handle struct {
	seg *shm.Segment
	dir string
}

// OpenOrCreate maps the registry segment under dir, creating and
// zero-initializing it if its magic doesn't match. Idempotent across
// processes on the same host.
func OpenOrCreate(dir string) (*Handle, error) {
	seg, err := shm.OpenOrCreate(dir, peername.RegistrySegment(), SegmentSize)
	if err != nil {
		return nil, err
	}
	h := &Handle{seg: seg, dir: dir}
	if h.magic() != magicWant || h.version() != versionWant {
		h.initialize()
	}
	return h, nil
}

// Close unmaps the registry segment without removing it: the registry
// persists across peer process lifetimes (spec.md §3).
func (h *Handle) Close() error { return h.seg.Close() }

func (h *Handle) magic() uint32   { return binary.LittleEndian.Uint32(h.seg.Data[0:4]) }
func (h *Handle) version() uint32 { return binary.LittleEndian.Uint32(h.seg.Data[4:8]) }

func (h *Handle) initialize() {
	binary.LittleEndian.PutUint32(h.seg.Data[0:4], magicWant)
	binary.LittleEndian.PutUint32(h.seg.Data[4:8], versionWant)
	for i := 0; i < MaxUsers; i++ {
		off := slotOffset(i)
		binary.LittleEndian.PutUint32(h.seg.Data[off:off+4], uint32(statusFree))
		clear(h.seg.Data[off+4 : off+4+UserIDMax])
		clear(h.seg.Data[off+4+UserIDMax : off+4+UserIDMax+QueueNameMax])
	}
}

func slotOffset(i int) int { return 8 + i*slotSize }

func (h *Handle) statusPtr(i int) *int32 {
	off := slotOffset(i)
	return (*int32)(unsafe.Pointer(&h.seg.Data[off]))
}

func (h *Handle) userIDBytes(i int) []byte {
	off := slotOffset(i) + 4
	return h.seg.Data[off : off+UserIDMax]
}

func (h *Handle) queueNameBytes(i int) []byte {
	off := slotOffset(i) + 4 + UserIDMax
	return h.seg.Data[off : off+QueueNameMax]
}

// Register first scans for a slot already holding userID (a same-id
// re-register updates the queue name in place and returns that slot);
// otherwise it attempts an atomic claim, free->taken, on successive slots.
// Returns ErrNoSlots if every slot is taken.
func (h *Handle) Register(userID, queueName string) (int, error) {
	for i := 0; i < MaxUsers; i++ {
		if atomic.LoadInt32(h.statusPtr(i)) == statusTaken && cString(h.userIDBytes(i)) == userID {
			putCString(h.queueNameBytes(i), queueName)
			return i, nil
		}
	}
	for i := 0; i < MaxUsers; i++ {
		if atomic.CompareAndSwapInt32(h.statusPtr(i), statusFree, statusTaken) {
			putCString(h.userIDBytes(i), userID)
			putCString(h.queueNameBytes(i), queueName)
			return i, nil
		}
	}
	return -1, ErrNoSlots
}

// Unregister clears the slot's text fields, then releases its status word.
func (h *Handle) Unregister(userID string) error {
	for i := 0; i < MaxUsers; i++ {
		if atomic.LoadInt32(h.statusPtr(i)) == statusTaken && cString(h.userIDBytes(i)) == userID {
			clear(h.userIDBytes(i))
			clear(h.queueNameBytes(i))
			atomic.StoreInt32(h.statusPtr(i), statusFree)
			return nil
		}
	}
	return ErrNotFound
}

// List returns a best-effort snapshot of taken entries. Readers tolerate
// torn string reads: a slot observed as taken mid-claim may yield a
// transient user id, which is why callers validate entries through the
// mailbox existence probe before display (spec.md §4.6).
func (h *Handle) List() []Entry {
	out := make([]Entry, 0, MaxUsers)
	for i := 0; i < MaxUsers; i++ {
		if atomic.LoadInt32(h.statusPtr(i)) == statusTaken {
			out = append(out, Entry{
				UserID:    cString(h.userIDBytes(i)),
				QueueName: cString(h.queueNameBytes(i)),
			})
		}
	}
	return out
}

func putCString(dst []byte, s string) {
	clear(dst)
	n := len(s)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst, s[:n])
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func clear(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
