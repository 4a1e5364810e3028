// Package regfile provides the two architectural register banks
// (integer and floating) and their rename-tag slots.
package regfile

import (
	"math"

	"github.com/sarchlab/tomasim/core/opt"
)

// NumRegisters is the number of architectural slots per bank.
// Destination indices in [NumRegisters, 2*NumRegisters) denote
// floating-register slots.
const NumRegisters = 32

// Bank is one architectural register bank. Each slot carries either an
// architectural value or a rename tag identifying the ROB entry that
// will produce the slot's next value; at most one is "live" at a time
// — if a tag is set the value is stale and must not be read by issue.
type Bank struct {
	values [NumRegisters]uint32
	tags   [NumRegisters]opt.Value[int]
}

// Read returns the architectural value of register i. Callers must
// check Tag first; reading a tagged register returns stale data.
func (b *Bank) Read(i uint8) uint32 {
	return b.values[i]
}

// Write stores an architectural value into register i, bypassing any
// tag. Used at commit.
func (b *Bank) Write(i uint8, v uint32) {
	b.values[i] = v
}

// Tag returns the rename tag for register i, absent if none is live.
func (b *Bank) Tag(i uint8) opt.Value[int] {
	return b.tags[i]
}

// SetTag installs robIndex as the rename tag for register i. A later
// issuer to the same destination overwrites the tag.
func (b *Bank) SetTag(i uint8, robIndex int) {
	b.tags[i].Set(robIndex)
}

// ClearTagIfOwner clears register i's tag only if it still equals
// robIndex — a later issuer may already own the tag, in which case the
// committing (earlier) entry must not clobber it.
func (b *Bank) ClearTagIfOwner(i uint8, robIndex int) {
	if tag, ok := b.tags[i].Get(); ok && tag == robIndex {
		b.tags[i].Clear()
	}
}

// Reset clears every value and tag in the bank.
func (b *Bank) Reset() {
	for i := range b.values {
		b.values[i] = 0
		b.tags[i].Clear()
	}
}

// Flush clears every tag in the bank, leaving architectural values
// untouched. Used on branch squash.
func (b *Bank) Flush() {
	for i := range b.tags {
		b.tags[i].Clear()
	}
}

// RegisterFile holds the integer and floating register banks.
type RegisterFile struct {
	Int   Bank
	Float Bank
}

// New creates a zero-initialized register file.
func New() *RegisterFile {
	return &RegisterFile{}
}

// Reset clears both banks.
func (r *RegisterFile) Reset() {
	r.Int.Reset()
	r.Float.Reset()
}

// Flush clears the tags of both banks, for branch squash.
func (r *RegisterFile) Flush() {
	r.Int.Flush()
	r.Float.Flush()
}

// GetInt returns the integer register's architectural value as a
// signed 32-bit integer.
func (r *RegisterFile) GetInt(i uint8) int32 {
	return int32(r.Int.Read(i))
}

// SetInt sets the integer register's architectural value.
func (r *RegisterFile) SetInt(i uint8, v int32) {
	r.Int.Write(i, uint32(v))
}

// GetFP returns the floating register's architectural value.
func (r *RegisterFile) GetFP(i uint8) float32 {
	return math.Float32frombits(r.Float.Read(i))
}

// SetFP sets the floating register's architectural value.
func (r *RegisterFile) SetFP(i uint8, v float32) {
	r.Float.Write(i, math.Float32bits(v))
}

// GetIntTag returns the integer register's rename tag.
func (r *RegisterFile) GetIntTag(i uint8) opt.Value[int] {
	return r.Int.Tag(i)
}

// GetFPTag returns the floating register's rename tag.
func (r *RegisterFile) GetFPTag(i uint8) opt.Value[int] {
	return r.Float.Tag(i)
}
