// Package rob implements the reorder buffer: a fixed-size circular
// queue of speculative results retired strictly in program order.
package rob

import "github.com/sarchlab/tomasim/core/opt"

// State is a ROB entry's pipeline stage.
type State uint8

const (
	StateFree State = iota
	StateIssue
	StateExecute
	StateWriteResult
	StateCommit
)

func (s State) String() string {
	switch s {
	case StateIssue:
		return "ISSUE"
	case StateExecute:
		return "EXECUTE"
	case StateWriteResult:
		return "WRITE-RESULT"
	case StateCommit:
		return "COMMIT"
	default:
		return "FREE"
	}
}

// Entry is one ROB slot.
type Entry struct {
	Live bool
	Seq  int // allocation sequence number; defines program order for commit
	PC   uint32
	State

	// Dest is a register index for ALU/load destinations, or the
	// effective byte address for a store. Absent for a store until its
	// address is computed in EXECUTE Pass A.
	Dest opt.Value[uint32]

	// IsStore distinguishes the Dest interpretation above; IsBranch
	// marks an entry whose Value must be compared against PC+4 at
	// commit to detect a taken branch.
	IsStore  bool
	IsBranch bool

	Value opt.Value[uint32]

	// StoreBypassed marks a load that captured its value directly from
	// an in-flight store rather than from memory.
	StoreBypassed bool

	Ready bool

	// IssueCycle records the cycle the entry was allocated. The
	// cycle-boundary rule (an instruction issued in cycle C is not
	// eligible for EXECUTE until C+1) is enforced with the station's
	// own IssueCycle.
	IssueCycle int
	// ExecCycle is used the same way to gate stores' and bypassed
	// loads' WRITE-RESULT transition.
	ExecCycle int
	// WRCycle records the cycle WRITE-RESULT completed. Ready is
	// raised lazily once WRCycle is strictly before the current cycle,
	// so a result broadcast in cycle C cannot commit until C+1.
	WRCycle opt.Value[int]
}

// Buffer is the circular ROB.
type Buffer struct {
	entries []Entry
	tail    int // next allocation slot
	nextSeq int
}

// New allocates a ROB of the given size. Size must be positive; a
// zero-size ROB is a configuration error the caller must reject.
func New(size int) *Buffer {
	return &Buffer{entries: make([]Entry, size)}
}

// Size returns the ROB's fixed capacity.
func (b *Buffer) Size() int {
	return len(b.entries)
}

// Full reports whether the next allocation slot is occupied.
func (b *Buffer) Full() bool {
	return b.entries[b.tail].Live
}

// Alloc reserves the next circular slot and returns its index and
// entry pointer. Caller must have checked Full() first.
func (b *Buffer) Alloc(pc uint32, issueCycle int) (int, *Entry) {
	idx := b.tail
	b.entries[idx] = Entry{
		Live:       true,
		Seq:        b.nextSeq,
		PC:         pc,
		State:      StateIssue,
		IssueCycle: issueCycle,
	}
	b.nextSeq++
	b.tail = (b.tail + 1) % len(b.entries)
	return idx, &b.entries[idx]
}

// At returns the entry at index i.
func (b *Buffer) At(i int) *Entry {
	return &b.entries[i]
}

// Oldest returns the index of the oldest live, ready entry — the
// unique commit candidate each cycle. Returns -1 if none is both live
// and ready, or if the oldest live entry is not yet ready (commit is
// strictly in order, so a not-ready oldest entry blocks everything
// behind it).
func (b *Buffer) Oldest() int {
	best := -1
	bestSeq := -1
	for i := range b.entries {
		e := &b.entries[i]
		if !e.Live {
			continue
		}
		if best == -1 || e.Seq < bestSeq {
			best = i
			bestSeq = e.Seq
		}
	}
	if best == -1 || !b.entries[best].Ready {
		return -1
	}
	return best
}

// Release frees entry i, the final step of commit.
func (b *Buffer) Release(i int) {
	b.entries[i] = Entry{}
}

// Flush clears every entry and resets the tail cursor to zero, used on
// branch squash.
func (b *Buffer) Flush() {
	for i := range b.entries {
		b.entries[i] = Entry{}
	}
	b.tail = 0
}

// Empty reports whether no entry is live, used to detect program
// drain (EOP reached and the ROB empty).
func (b *Buffer) Empty() bool {
	for i := range b.entries {
		if b.entries[i].Live {
			return false
		}
	}
	return true
}
