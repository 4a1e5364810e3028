package engine_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/core/engine"
	"github.com/sarchlab/tomasim/insts"
)

func TestEngine(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Engine Suite")
}

func newEngine() *engine.Engine {
	e := engine.New(4096, 8, 4, 4, 2, 2, 2)
	e.InitExecUnit(insts.FunitInteger, 1, 2)
	e.InitExecUnit(insts.FunitMemory, 1, 2)
	e.InitExecUnit(insts.FunitAdder, 2, 2)
	e.InitExecUnit(insts.FunitMultiplier, 4, 1)
	e.InitExecUnit(insts.FunitDivider, 8, 1)
	return e
}

var _ = Describe("Engine", func() {
	It("computes a simple dependency chain through rename tags", func() {
		e := newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 5},  // R1 = R0 + 5
			{Op: insts.OpADDI, Src1: 0, Dest: 2, Imm: 7},  // R2 = R0 + 7
			{Op: insts.OpADD, Src1: 1, Src2: 2, Dest: 3},  // R3 = R1 + R2
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)

		Expect(e.GetIntRegister(3)).To(Equal(int32(12)))
		Expect(e.Stats().Instructions).To(Equal(3))
	})

	It("retires instructions strictly in program order", func() {
		e := newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 1},
			{Op: insts.OpADDI, Src1: 0, Dest: 2, Imm: 2},
			{Op: insts.OpADDI, Src1: 0, Dest: 3, Imm: 3},
			{Op: insts.OpADDI, Src1: 0, Dest: 4, Imm: 4},
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)

		var pcs []uint32
		for _, l := range e.Log {
			pcs = append(pcs, l.PC)
		}
		Expect(pcs).To(Equal([]uint32{0, 4, 8, 12}))
	})

	It("stores a value and loads it back via store-to-load bypass", func() {
		e := newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 5, Imm: 100}, // R5 = base
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 42},  // R1 = 42
			{Op: insts.OpSW, Src1: 5, Src2: 1, Imm: 0},     // mem[R5+0] = R1
			{Op: insts.OpLW, Src1: 5, Dest: 2, Imm: 0},     // R2 = mem[R5+0]
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)

		Expect(e.GetIntRegister(2)).To(Equal(int32(42)))
	})

	It("a taken branch squashes younger speculative state", func() {
		e := newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 0},  // R1 = 0
			{Op: insts.OpBEQZ, Src1: 1, Imm: 4},           // taken: skip the next instruction
			{Op: insts.OpADDI, Src1: 0, Dest: 6, Imm: 99}, // squashed, must never commit
			{Op: insts.OpADDI, Src1: 0, Dest: 2, Imm: 1},  // branch target
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)

		Expect(e.GetIntRegister(2)).To(Equal(int32(1)))
		Expect(e.GetIntRegister(6)).To(Equal(int32(0)))
	})

	It("does not take a not-taken branch", func() {
		e := newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 1},
			{Op: insts.OpBEQZ, Src1: 1, Imm: 4},
			{Op: insts.OpADDI, Src1: 0, Dest: 6, Imm: 99},
			{Op: insts.OpADDI, Src1: 0, Dest: 2, Imm: 1},
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)

		Expect(e.GetIntRegister(6)).To(Equal(int32(99)), "not taken means the skipped instruction still commits")
		Expect(e.GetIntRegister(2)).To(Equal(int32(1)))
	})

	It("stalls issue when a station class is exhausted", func() {
		e := engine.New(4096, 8, 1, 4, 2, 2, 4)
		e.InitExecUnit(insts.FunitInteger, 1, 4)
		e.InitExecUnit(insts.FunitMemory, 1, 1)
		e.InitExecUnit(insts.FunitAdder, 1, 1)
		e.InitExecUnit(insts.FunitMultiplier, 1, 1)
		e.InitExecUnit(insts.FunitDivider, 1, 1)
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 1},
			{Op: insts.OpADDI, Src1: 0, Dest: 2, Imm: 2},
			{Op: insts.OpADDI, Src1: 0, Dest: 3, Imm: 3},
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)

		Expect(e.GetIntRegister(3)).To(Equal(int32(3)))
		Expect(e.Stats().Instructions).To(Equal(3))
	})

	It("reports IPC from cycles and retired instructions", func() {
		e := newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 1},
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)

		stats := e.Stats()
		Expect(stats.Cycles).To(BeNumerically(">", 0))
		Expect(stats.IPC).To(BeNumerically(">", 0))
	})

	It("Reset restores initial state but keeps the loaded program", func() {
		e := newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 9},
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)
		Expect(e.GetIntRegister(1)).To(Equal(int32(9)))

		e.Reset()
		Expect(e.GetIntRegister(1)).To(Equal(int32(0)))
		Expect(e.PC()).To(Equal(uint32(0)))

		e.Run(0)
		Expect(e.GetIntRegister(1)).To(Equal(int32(9)))
	})
})
