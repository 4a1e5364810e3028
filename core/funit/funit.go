// Package funit models the pool of functional units that EXECUTE
// dispatches onto. Each unit is a simple countdown timer and a
// one-slot result holder: a station occupies a free unit of the right
// type for a configured number of cycles; once the countdown reaches
// zero the unit is Ready and WRITE-RESULT broadcasts its held result
// and releases it.
package funit

import "github.com/sarchlab/tomasim/insts"

// Unit is one functional-unit instance of a fixed type.
type Unit struct {
	Type insts.FunitType

	// busy is true from the cycle a station occupies the unit through
	// the cycle it is released.
	busy bool

	// robIndex identifies which ROB entry currently owns the unit.
	robIndex int

	// result holds the value computed at dispatch time, visible to
	// WRITE-RESULT once the countdown reaches zero.
	result uint32

	// remaining is the number of cycles left before the result is
	// visible. It is set to latency at Occupy and decremented once per
	// cycle by Tick, which runs strictly after this cycle's
	// WRITE-RESULT check: results broadcast in cycle C are visible to
	// stations at C+1, so a unit occupied this cycle is never Ready
	// this same cycle.
	remaining int

	// latency is the unit's configured execution latency, reapplied
	// each time the unit is occupied.
	latency int
}

// NewUnit creates an idle unit of the given type and latency.
func NewUnit(t insts.FunitType, latency int) *Unit {
	return &Unit{Type: t, latency: latency}
}

// Busy reports whether the unit is currently occupied.
func (u *Unit) Busy() bool {
	return u.busy
}

// Ready reports whether the unit's result is visible this cycle.
func (u *Unit) Ready() bool {
	return u.busy && u.remaining == 0
}

// Occupy assigns robIndex to the unit, stores the computed result, and
// starts its latency countdown. The caller must have checked Busy()
// first.
func (u *Unit) Occupy(robIndex int, result uint32) {
	u.busy = true
	u.robIndex = robIndex
	u.result = result
	u.remaining = u.latency
}

// ROBIndex returns the ROB entry currently occupying the unit.
func (u *Unit) ROBIndex() int {
	return u.robIndex
}

// Result returns the value computed at dispatch. Valid once Ready.
func (u *Unit) Result() uint32 {
	return u.result
}

// Tick decrements the unit's remaining countdown by one cycle. Called
// once per cycle, after WRITE-RESULT has already checked Ready against
// this cycle's count, so the decrement takes effect starting next
// cycle.
func (u *Unit) Tick() {
	if u.busy && u.remaining > 0 {
		u.remaining--
	}
}

// Release frees the unit so a new station may occupy it, once the
// result has been broadcast.
func (u *Unit) Release() {
	u.busy = false
	u.robIndex = 0
	u.result = 0
	u.remaining = 0
}

// Pool is a set of functional units, grouped by type.
type Pool struct {
	units []*Unit
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Add appends count units of the given type and latency to the pool.
func (p *Pool) Add(t insts.FunitType, count, latency int) {
	for i := 0; i < count; i++ {
		p.units = append(p.units, NewUnit(t, latency))
	}
}

// FreeUnit returns the first idle unit of the required type, or nil if
// none is free. EXECUTE leaves a ready station waiting for a later
// cycle when this returns nil for its opcode's unit type.
func (p *Pool) FreeUnit(t insts.FunitType) *Unit {
	return p.FreeUnitExcept(t, nil)
}

// FreeUnitExcept is FreeUnit, skipping any unit in exclude. Used by
// store COMMIT to honor the one-cycle restriction that a MEMORY unit a
// load just released this same cycle cannot immediately be reused by
// a store write.
func (p *Pool) FreeUnitExcept(t insts.FunitType, exclude []*Unit) *Unit {
	for _, u := range p.units {
		if u.Type != t || u.busy {
			continue
		}
		excluded := false
		for _, x := range exclude {
			if x == u {
				excluded = true
				break
			}
		}
		if !excluded {
			return u
		}
	}
	return nil
}

// All returns every unit in the pool.
func (p *Pool) All() []*Unit {
	return p.units
}

// Tick decrements every busy unit's countdown by one cycle.
func (p *Pool) Tick() {
	for _, u := range p.units {
		u.Tick()
	}
}

// Reset releases every unit in the pool.
func (p *Pool) Reset() {
	for _, u := range p.units {
		u.Release()
	}
}
