// Package engine is the pipeline engine: the per-cycle stage driver
// that coordinates the ROB, reservation stations, register renaming,
// functional-unit pool, and memory-disambiguation logic into the
// ISSUE -> EXECUTE -> WRITE-RESULT -> COMMIT state machine.
package engine

import (
	"fmt"

	"github.com/sarchlab/tomasim/core/alu"
	"github.com/sarchlab/tomasim/core/funit"
	"github.com/sarchlab/tomasim/core/opt"
	"github.com/sarchlab/tomasim/core/regfile"
	"github.com/sarchlab/tomasim/core/rob"
	"github.com/sarchlab/tomasim/core/rs"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/mem"
)

// Engine is the out-of-order Tomasulo core.
type Engine struct {
	regs     *regfile.RegisterFile
	mem      *mem.Memory
	rob      *rob.Buffer
	stations *rs.Pools
	funits   *funit.Pool

	program  []insts.Instruction
	progBase uint32

	pc         uint32
	cycle      int
	issueWidth int
	retired    int

	window []WindowEntry
	Log    []LogEntry

	// loadReleasedUnits lists MEMORY units a load's WRITE-RESULT freed
	// this cycle, reset every Tick. Store COMMIT may not reuse one of
	// these in the same cycle.
	loadReleasedUnits []*funit.Unit
}

// New constructs an engine. memSize is the data memory's size in
// bytes; robSize and the four station counts must be positive — a
// zero-size ROB or missing stations is a configuration error the
// caller must reject before calling New.
func New(memSize uint32, robSize, numInt, numLoad, numAdd, numMult, issueWidth int) *Engine {
	if robSize <= 0 {
		panic("engine: ROB size must be positive")
	}
	if issueWidth <= 0 {
		panic("engine: issue width must be positive")
	}
	return &Engine{
		regs:       regfile.New(),
		mem:        mem.New(memSize),
		rob:        rob.New(robSize),
		stations:   rs.NewPools(numInt, numLoad, numAdd, numMult),
		funits:     funit.NewPool(),
		issueWidth: issueWidth,
		window:     make([]WindowEntry, robSize),
	}
}

// InitExecUnit appends count functional units of the given type and
// latency to the pool. Called repeatedly before the first Tick.
func (e *Engine) InitExecUnit(t insts.FunitType, latency, instances int) {
	e.funits.Add(t, instances, latency)
}

// LoadProgram installs the instruction stream starting at base, padded
// with EOP to size words. size is in instructions, not bytes.
func (e *Engine) LoadProgram(base uint32, program []insts.Instruction, size int) {
	e.progBase = base
	e.program = make([]insts.Instruction, size)
	for i := range e.program {
		e.program[i] = insts.EOP
	}
	copy(e.program, program)
	e.pc = base
}

// SetPC sets the program counter.
func (e *Engine) SetPC(pc uint32) {
	e.pc = pc
}

// PC returns the current program counter.
func (e *Engine) PC() uint32 {
	return e.pc
}

// Memory returns the engine's data memory, for report/CLI inspection.
func (e *Engine) Memory() *mem.Memory {
	return e.mem
}

// ROB returns the engine's reorder buffer, for report/CLI inspection.
func (e *Engine) ROB() *rob.Buffer {
	return e.rob
}

// Stations returns the engine's reservation-station pools, for
// report/CLI inspection.
func (e *Engine) Stations() *rs.Pools {
	return e.stations
}

// FunctionalUnits returns the engine's functional-unit pool, for
// report/CLI inspection.
func (e *Engine) FunctionalUnits() *funit.Pool {
	return e.funits
}

// Window returns the live-instruction diagnostic window, indexed the
// same way as the ROB.
func (e *Engine) Window() []WindowEntry {
	return e.window
}

// Cycle returns the current cycle count.
func (e *Engine) Cycle() int {
	return e.cycle
}

// GetIntRegister returns an integer register's architectural value.
func (e *Engine) GetIntRegister(i uint8) int32 {
	return e.regs.GetInt(i)
}

// SetIntRegister sets an integer register's architectural value.
func (e *Engine) SetIntRegister(i uint8, v int32) {
	e.regs.SetInt(i, v)
}

// GetFPRegister returns a floating register's architectural value.
func (e *Engine) GetFPRegister(i uint8) float32 {
	return e.regs.GetFP(i)
}

// SetFPRegister sets a floating register's architectural value.
func (e *Engine) SetFPRegister(i uint8, v float32) {
	e.regs.SetFP(i, v)
}

// GetIntTag returns an integer register's rename tag, absent if none
// is live.
func (e *Engine) GetIntTag(i uint8) opt.Value[int] {
	return e.regs.GetIntTag(i)
}

// GetFPTag returns a floating register's rename tag, absent if none is
// live.
func (e *Engine) GetFPTag(i uint8) opt.Value[int] {
	return e.regs.GetFPTag(i)
}

// Stats reports execution statistics.
type Stats struct {
	Cycles       int
	Instructions int
	IPC          float64
}

// Stats returns the engine's current statistics.
func (e *Engine) Stats() Stats {
	s := Stats{Cycles: e.cycle, Instructions: e.retired}
	if e.cycle > 0 {
		s.IPC = float64(e.retired) / float64(e.cycle)
	}
	return s
}

// Done reports whether the program has fully drained: EOP has been
// reached and the ROB holds no in-flight instruction.
func (e *Engine) Done() bool {
	idx := (e.pc - e.progBase) / 4
	atEOP := int(idx) >= len(e.program) || e.program[idx].Op == insts.OpEOP
	return atEOP && e.rob.Empty()
}

// Reset returns the engine to its initial state, keeping the loaded
// program.
func (e *Engine) Reset() {
	e.regs.Reset()
	e.rob.Flush()
	e.stations.Reset()
	e.funits.Reset()
	e.pc = e.progBase
	e.cycle = 0
	e.retired = 0
	for i := range e.window {
		e.window[i] = WindowEntry{}
	}
	e.Log = nil
}

// Run advances the engine by n cycles, or to completion if n is zero.
func (e *Engine) Run(n int) {
	if n == 0 {
		for !e.Done() {
			e.Tick()
		}
		return
	}
	for i := 0; i < n && !e.Done(); i++ {
		e.Tick()
	}
}

// fetch returns the instruction at pc, or EOP if pc falls outside the
// loaded instruction memory.
func (e *Engine) fetch(pc uint32) insts.Instruction {
	idx := (pc - e.progBase) / 4
	if int(idx) >= len(e.program) {
		return insts.EOP
	}
	return e.program[idx]
}

// Tick advances the engine by exactly one cycle: it increments the
// cycle counter, then runs ISSUE (which advances the PC), EXECUTE,
// WRITE-RESULT, the ready-flag update, COMMIT, and the unit countdown
// in that order.
func (e *Engine) Tick() {
	e.cycle++
	e.loadReleasedUnits = nil

	e.issue()
	e.executeStores()
	e.executeDispatch()
	e.writeResult()
	// Ready must reflect only WRITE-RESULTs from strictly earlier
	// cycles before COMMIT runs, so a result broadcast this cycle
	// cannot commit until the next one.
	e.finalizeReady()
	e.commit()
	e.funits.Tick()
}

// finalizeReady raises the ready flag for entries whose result was
// broadcast in a prior cycle. It runs once per cycle, after
// WRITE-RESULT and before COMMIT.
func (e *Engine) finalizeReady() {
	for i := 0; i < e.rob.Size(); i++ {
		entry := e.rob.At(i)
		if !entry.Live || entry.Ready {
			continue
		}
		if wr, ok := entry.WRCycle.Get(); ok && wr < e.cycle {
			entry.Ready = true
		}
	}
}

// destTag installs robIndex as the rename tag for a non-store,
// non-branch instruction's destination register, and returns the
// bank-relative destination value recorded on the ROB entry.
func (e *Engine) destTag(instr insts.Instruction, robIndex int) uint32 {
	dest := uint32(instr.Dest)
	if instr.Op.IsFPDest() {
		e.regs.Float.SetTag(instr.Dest, robIndex)
		dest += regfile.NumRegisters
	} else {
		e.regs.Int.SetTag(instr.Dest, robIndex)
	}
	return dest
}

// operandFor resolves a source register into a station operand: the
// architectural value if no tag is live, the producing ROB entry's
// value if already resolved, or the tag itself to await broadcast.
func (e *Engine) operandFor(isFloat bool, reg uint8) rs.Operand {
	bank := &e.regs.Int
	if isFloat {
		bank = &e.regs.Float
	}
	tag, ok := bank.Tag(reg).Get()
	if !ok {
		return rs.FromValue(bank.Read(reg))
	}
	if v, ok := e.rob.At(tag).Value.Get(); ok {
		return rs.FromValue(v)
	}
	return rs.FromTag(tag)
}

// issue performs the ISSUE stage for up to issueWidth instructions.
func (e *Engine) issue() {
	for n := 0; n < e.issueWidth; n++ {
		instr := e.fetch(e.pc)
		if instr.Op == insts.OpEOP {
			return
		}

		class := instr.Op.Class()
		set := e.stations.Set(class)
		station := set.Free()
		if station == nil || e.rob.Full() {
			return
		}

		robIdx, entry := e.rob.Alloc(e.pc, e.cycle)
		entry.IsStore = instr.Op.IsStore()
		entry.IsBranch = instr.Op.IsBranch()
		if !entry.IsStore && !entry.IsBranch {
			entry.Dest = opt.Of(e.destTag(instr, robIdx))
		}

		station.Busy = true
		station.Op = instr.Op
		station.PC = e.pc
		station.Imm = instr.Imm
		station.ROBIndex = robIdx
		station.IssueCycle = e.cycle

		switch {
		case instr.Op.IsIntReg():
			station.Vj = e.operandFor(false, instr.Src1)
			station.Vk = e.operandFor(false, instr.Src2)
		case instr.Op.IsIntImm():
			station.Vj = e.operandFor(false, instr.Src1)
			station.Vk = rs.FromValue(0)
		case instr.Op.IsFPALU():
			station.Vj = e.operandFor(true, instr.Src1)
			station.Vk = e.operandFor(true, instr.Src2)
		case instr.Op == insts.OpLW:
			station.Vj = rs.FromValue(0)
			station.Vk = e.operandFor(false, instr.Src1)
		case instr.Op == insts.OpLWS:
			station.Vj = rs.FromValue(0)
			station.Vk = e.operandFor(false, instr.Src1)
		case instr.Op == insts.OpSW:
			station.Vj = e.operandFor(false, instr.Src2)
			station.Vk = e.operandFor(false, instr.Src1)
		case instr.Op == insts.OpSWS:
			station.Vj = e.operandFor(true, instr.Src2)
			station.Vk = e.operandFor(false, instr.Src1)
		case instr.Op == insts.OpJUMP:
			station.Vj = rs.FromValue(0)
			station.Vk = rs.FromValue(0)
		case instr.Op.IsBranch():
			station.Vj = e.operandFor(false, instr.Src1)
			station.Vk = rs.FromValue(0)
		default:
			panic(fmt.Sprintf("engine: unhandled opcode %v at issue", instr.Op))
		}

		e.window[robIdx] = WindowEntry{Live: true, PC: e.pc, Issue: opt.Of(e.cycle)}
		e.pc += 4
	}
}

// executeStores runs EXECUTE Pass A: address computation for stores.
func (e *Engine) executeStores() {
	for _, st := range e.stations.Load.All() {
		if !st.Busy || !st.Op.IsStore() || st.AddrReady {
			continue
		}
		if st.IssueCycle >= e.cycle || !st.Vj.Ready() || !st.Vk.Ready() {
			continue
		}
		addr := uint32(int32(st.Vk.Value()) + st.Imm)
		st.Addr = addr
		st.AddrReady = true

		entry := e.rob.At(st.ROBIndex)
		entry.Dest = opt.Of(addr)
		entry.State = rob.StateExecute
		entry.ExecCycle = e.cycle
		e.window[st.ROBIndex].Exec = opt.Of(e.cycle)
	}
}

// executeDispatch runs EXECUTE Pass B: non-store dispatch onto free
// functional units, including load memory disambiguation.
func (e *Engine) executeDispatch() {
	for _, set := range []*rs.Set{e.stations.Int, e.stations.Add, e.stations.Mult, e.stations.Load} {
		for _, st := range set.All() {
			if !st.Busy || st.Op.IsStore() || !st.Ready() {
				continue
			}
			if st.IssueCycle >= e.cycle {
				continue
			}
			entry := e.rob.At(st.ROBIndex)
			if entry.State != rob.StateIssue {
				continue
			}

			unitType := st.Op.FunitType()
			unit := e.funits.FreeUnit(unitType)
			if unit == nil {
				continue
			}

			if st.Op.IsLoad() {
				stall, bypassVal, bypassed := e.disambiguate(st)
				if stall {
					continue
				}
				if bypassed {
					entry.Value = opt.Of(bypassVal)
					entry.StoreBypassed = true
					entry.State = rob.StateExecute
					entry.ExecCycle = e.cycle
					e.window[st.ROBIndex].Exec = opt.Of(e.cycle)
					continue
				}
				addr := uint32(int32(st.Vk.Value()) + st.Imm)
				result := e.mem.Read32(addr)
				unit.Occupy(st.ROBIndex, result)
			} else {
				result := alu.Eval(st.Op, st.Vj.Value(), st.Vk.Value(), st.Imm, st.PC)
				unit.Occupy(st.ROBIndex, result)
			}

			entry.State = rob.StateExecute
			entry.ExecCycle = e.cycle
			e.window[st.ROBIndex].Exec = opt.Of(e.cycle)
		}
	}
}

// disambiguate resolves a load station against every older in-flight
// store. It returns stall=true if an older store blocks the load
// because the store's target is unresolved or aliases the load, or
// bypassed=true with the captured value if an older store's completed
// result can be forwarded directly.
func (e *Engine) disambiguate(load *rs.Station) (stall bool, value uint32, bypassed bool) {
	loadEntry := e.rob.At(load.ROBIndex)
	loadAddr := uint32(int32(load.Vk.Value()) + load.Imm)

	// Collect older stores by allocation sequence, not raw PC: a loop
	// body's store can have a lower Seq but a higher static PC than a
	// load reached via backward branch, so PC comparison alone would
	// misjudge age.
	var olderStores []*rob.Entry
	for i := 0; i < e.rob.Size(); i++ {
		entry := e.rob.At(i)
		if entry.Live && entry.IsStore && entry.Seq < loadEntry.Seq {
			olderStores = append(olderStores, entry)
		}
	}

	// Sort newest-first so the load's bypass source, if any, is the
	// latest aliasing store rather than whichever one happens to sit
	// first in ROB-index order.
	for i := 0; i < len(olderStores); i++ {
		for j := i + 1; j < len(olderStores); j++ {
			if olderStores[j].Seq > olderStores[i].Seq {
				olderStores[i], olderStores[j] = olderStores[j], olderStores[i]
			}
		}
	}

	for _, entry := range olderStores {
		addr, addrKnown := entry.Dest.Get()
		switch entry.State {
		case rob.StateIssue:
			// Address not yet computed: aliasing cannot be ruled out.
			return true, 0, false
		case rob.StateExecute:
			if addrKnown && addr == loadAddr {
				return true, 0, false
			}
		case rob.StateWriteResult, rob.StateCommit:
			if addrKnown && addr == loadAddr {
				val, _ := entry.Value.Get()
				return false, val, true
			}
		}
	}
	return false, 0, false
}

// writeResult runs the WRITE-RESULT stage: unit broadcast, the store
// write-result rule, and bypassed-load completion.
func (e *Engine) writeResult() {
	for _, unit := range e.funits.All() {
		if !unit.Ready() {
			continue
		}
		robIdx := unit.ROBIndex()
		entry := e.rob.At(robIdx)
		entry.Value = opt.Of(unit.Result())
		entry.State = rob.StateWriteResult
		entry.WRCycle = opt.Of(e.cycle)
		e.window[robIdx].WriteResult = opt.Of(e.cycle)

		e.broadcast(robIdx, unit.Result())
		e.releaseStation(robIdx)
		if unit.Type == insts.FunitMemory {
			e.loadReleasedUnits = append(e.loadReleasedUnits, unit)
		}
		unit.Release()
	}

	for _, st := range e.stations.Load.All() {
		if !st.Busy || !st.Op.IsStore() {
			continue
		}
		entry := e.rob.At(st.ROBIndex)
		if entry.State != rob.StateExecute || entry.ExecCycle >= e.cycle {
			continue
		}
		entry.Value = opt.Of(st.Vj.Value())
		entry.State = rob.StateWriteResult
		entry.WRCycle = opt.Of(e.cycle)
		e.window[st.ROBIndex].WriteResult = opt.Of(e.cycle)
		st.Release()
	}

	for _, st := range e.stations.Load.All() {
		if !st.Busy || !st.Op.IsLoad() {
			continue
		}
		entry := e.rob.At(st.ROBIndex)
		if !entry.StoreBypassed || entry.State != rob.StateExecute || entry.ExecCycle >= e.cycle {
			continue
		}
		entry.State = rob.StateWriteResult
		entry.WRCycle = opt.Of(e.cycle)
		e.window[st.ROBIndex].WriteResult = opt.Of(e.cycle)
		st.Release()
	}
}

// broadcast delivers a result to every station waiting on robIdx.
func (e *Engine) broadcast(robIdx int, value uint32) {
	for _, st := range e.stations.All() {
		if !st.Busy {
			continue
		}
		if tag, ok := st.Vj.Tag().Get(); ok && tag == robIdx {
			st.Vj.Resolve(value)
		}
		if tag, ok := st.Vk.Tag().Get(); ok && tag == robIdx {
			st.Vk.Resolve(value)
		}
	}
}

// releaseStation frees the station occupying robIdx, if any (a store
// or bypassed load releases its own station elsewhere).
func (e *Engine) releaseStation(robIdx int) {
	for _, st := range e.stations.All() {
		if st.Busy && st.ROBIndex == robIdx {
			st.Release()
			return
		}
	}
}

// commit runs the COMMIT stage: retires the oldest ready ROB entry, or
// squashes on a taken branch.
func (e *Engine) commit() {
	idx := e.rob.Oldest()
	if idx < 0 {
		return
	}
	entry := e.rob.At(idx)

	switch {
	case entry.IsBranch:
		notTaken := entry.PC + 4
		target := entry.Value.MustGet()
		taken := target != notTaken
		e.window[idx].Commit = opt.Of(e.cycle)
		e.Log = append(e.Log, e.window[idx].toLog())
		e.retired++
		e.rob.Release(idx)
		e.window[idx] = WindowEntry{}
		if taken {
			e.pc = target
			e.squash()
		}

	case entry.IsStore:
		if entry.State != rob.StateWriteResult {
			return
		}
		unit := e.funits.FreeUnitExcept(insts.FunitMemory, e.loadReleasedUnits)
		if unit == nil {
			return
		}
		addr, _ := entry.Dest.Get()
		e.mem.Write32(addr, entry.Value.MustGet())
		e.window[idx].Commit = opt.Of(e.cycle)
		e.Log = append(e.Log, e.window[idx].toLog())
		e.retired++
		e.rob.Release(idx)
		e.window[idx] = WindowEntry{}

	default:
		dest, _ := entry.Dest.Get()
		isFloat := dest >= regfile.NumRegisters
		reg := uint8(dest)
		if isFloat {
			reg = uint8(dest - regfile.NumRegisters)
			e.regs.Float.Write(reg, entry.Value.MustGet())
			e.regs.Float.ClearTagIfOwner(reg, idx)
		} else {
			e.regs.Int.Write(reg, entry.Value.MustGet())
			e.regs.Int.ClearTagIfOwner(reg, idx)
		}
		e.window[idx].Commit = opt.Of(e.cycle)
		e.Log = append(e.Log, e.window[idx].toLog())
		e.retired++
		e.rob.Release(idx)
		e.window[idx] = WindowEntry{}
	}
}

// squash flushes all speculative state after a taken-branch commit:
// every ROB entry, reservation station, functional unit, and register
// tag is cleared, and remaining window entries are flushed to the log
// sorted by PC.
func (e *Engine) squash() {
	var flushed []LogEntry
	for i := range e.window {
		if e.window[i].Live {
			flushed = append(flushed, e.window[i].toLog())
		}
		e.window[i] = WindowEntry{}
	}
	for i := 0; i < len(flushed); i++ {
		for j := i + 1; j < len(flushed); j++ {
			if flushed[j].PC < flushed[i].PC {
				flushed[i], flushed[j] = flushed[j], flushed[i]
			}
		}
	}
	e.Log = append(e.Log, flushed...)

	e.rob.Flush()
	e.stations.Reset()
	e.funits.Reset()
	e.regs.Flush()
}
