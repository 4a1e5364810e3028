// Package rs implements reservation stations. A station buffers an
// instruction's operands — each either a resolved value or a tag
// naming the ROB entry that will produce it — until both are resolved
// and EXECUTE can dispatch the station.
package rs

import (
	"github.com/sarchlab/tomasim/core/opt"
	"github.com/sarchlab/tomasim/insts"
)

// Operand is one station operand slot: exactly one of value or tag is
// live at a time, mirroring the register-bank rule.
type Operand struct {
	value uint32
	tag   opt.Value[int]
}

// FromValue returns an already-resolved operand.
func FromValue(v uint32) Operand {
	return Operand{value: v}
}

// FromTag returns an operand waiting on the given ROB index.
func FromTag(robIndex int) Operand {
	return Operand{tag: opt.Of(robIndex)}
}

// Ready reports whether the operand holds a resolved value.
func (o Operand) Ready() bool {
	return !o.tag.IsPresent()
}

// Value returns the resolved value. Callers must check Ready first.
func (o Operand) Value() uint32 {
	return o.value
}

// Tag returns the ROB index this operand is waiting on, if any.
func (o Operand) Tag() opt.Value[int] {
	return o.tag
}

// Resolve supplies a broadcast value, clearing the tag.
func (o *Operand) Resolve(v uint32) {
	o.value = v
	o.tag.Clear()
}

// Station is one reservation-station slot.
type Station struct {
	Busy       bool
	Class      insts.Class
	Op         insts.Op
	PC         uint32
	Vj, Vk     Operand
	Imm        int32
	ROBIndex   int // destination ROB entry
	IssueCycle int // cycle this station was allocated; see cycle-boundary rule

	// Addr/AddrReady hold a store's computed effective address,
	// computed in its own EXECUTE pass. Unused by loads, which compute
	// and consume the address in one EXECUTE pass.
	Addr      uint32
	AddrReady bool
}

// Ready reports whether the station may dispatch: both operands
// resolved.
func (s *Station) Ready() bool {
	return s.Busy && s.Vj.Ready() && s.Vk.Ready()
}

// Release resets a station to its idle zero value, once its result
// has been broadcast, or on branch squash.
func (s *Station) Release() {
	*s = Station{}
}

// Set is a fixed-size pool of same-class stations.
type Set struct {
	class    insts.Class
	stations []*Station
}

// NewSet allocates count idle stations of the given class.
func NewSet(class insts.Class, count int) *Set {
	s := &Set{class: class}
	for i := 0; i < count; i++ {
		s.stations = append(s.stations, &Station{Class: class})
	}
	return s
}

// Free returns the first idle station, or nil if the set is full.
func (s *Set) Free() *Station {
	for _, st := range s.stations {
		if !st.Busy {
			return st
		}
	}
	return nil
}

// All returns every station in the set, for broadcast/scan passes.
func (s *Set) All() []*Station {
	return s.stations
}

// Reset clears every station in the set, used on branch squash.
func (s *Set) Reset() {
	for _, st := range s.stations {
		st.Release()
	}
}

// Pools groups the four station classes.
type Pools struct {
	Int  *Set
	Load *Set
	Add  *Set
	Mult *Set
}

// NewPools builds the station pools from per-class counts.
func NewPools(intCount, loadCount, addCount, multCount int) *Pools {
	return &Pools{
		Int:  NewSet(insts.ClassInt, intCount),
		Load: NewSet(insts.ClassLoad, loadCount),
		Add:  NewSet(insts.ClassAdd, addCount),
		Mult: NewSet(insts.ClassMult, multCount),
	}
}

// Set returns the pool for the given class. A ClassNone argument is a
// programming error the engine never makes.
func (p *Pools) Set(class insts.Class) *Set {
	switch class {
	case insts.ClassInt:
		return p.Int
	case insts.ClassLoad:
		return p.Load
	case insts.ClassAdd:
		return p.Add
	case insts.ClassMult:
		return p.Mult
	default:
		panic("rs: no station set for class")
	}
}

// All returns every station across every pool, for broadcast/scan
// passes that are class-agnostic (e.g. WRITE-RESULT's tag broadcast).
func (p *Pools) All() []*Station {
	var out []*Station
	out = append(out, p.Int.All()...)
	out = append(out, p.Load.All()...)
	out = append(out, p.Add.All()...)
	out = append(out, p.Mult.All()...)
	return out
}

// Reset clears every station in every pool.
func (p *Pools) Reset() {
	p.Int.Reset()
	p.Load.Reset()
	p.Add.Reset()
	p.Mult.Reset()
}
