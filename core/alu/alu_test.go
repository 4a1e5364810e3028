package alu_test

import (
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/core/alu"
	"github.com/sarchlab/tomasim/insts"
)

func TestALU(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ALU Suite")
}

var _ = Describe("Eval", func() {
	DescribeTable("integer ops",
		func(op insts.Op, v1, v2 uint32, imm int32, want uint32) {
			Expect(alu.Eval(op, v1, v2, imm, 0)).To(Equal(want))
		},
		Entry("ADD", insts.OpADD, uint32(3), uint32(4), int32(0), uint32(7)),
		Entry("SUB", insts.OpSUB, uint32(10), uint32(4), int32(0), uint32(6)),
		Entry("ADDI", insts.OpADDI, uint32(3), uint32(0), int32(-5), uint32(0xFFFFFFFE)),
		Entry("XOR", insts.OpXOR, uint32(0b1100), uint32(0b1010), int32(0), uint32(0b0110)),
		Entry("AND", insts.OpAND, uint32(0b1100), uint32(0b1010), int32(0), uint32(0b1000)),
		Entry("MULT", insts.OpMULT, uint32(6), uint32(7), int32(0), uint32(42)),
		Entry("DIV", insts.OpDIV, uint32(20), uint32(4), int32(0), uint32(5)),
	)

	It("evaluates floating ops by bit-reinterpretation", func() {
		v1 := math.Float32bits(1.5)
		v2 := math.Float32bits(2.25)
		got := alu.Eval(insts.OpADDS, v1, v2, 0, 0)
		Expect(math.Float32frombits(got)).To(Equal(float32(3.75)))
	})

	It("resolves JUMP to PC+4+displacement", func() {
		got := alu.Eval(insts.OpJUMP, 0, 0, 16, 100)
		Expect(got).To(Equal(uint32(120)))
	})

	DescribeTable("branch resolution",
		func(op insts.Op, v1 uint32, taken bool) {
			pc := uint32(40)
			got := alu.Eval(op, v1, 0, 8, pc)
			if taken {
				Expect(got).To(Equal(pc + 4 + 8))
			} else {
				Expect(got).To(Equal(pc + 4))
			}
		},
		Entry("BEQZ taken", insts.OpBEQZ, uint32(0), true),
		Entry("BEQZ not taken", insts.OpBEQZ, uint32(1), false),
		Entry("BNEZ taken", insts.OpBNEZ, uint32(1), true),
		Entry("BGTZ taken", insts.OpBGTZ, uint32(5), true),
		Entry("BGTZ not taken on zero", insts.OpBGTZ, uint32(0), false),
		Entry("BLTZ taken", insts.OpBLTZ, uint32(0xFFFFFFFF), true),
		Entry("BLEZ taken on zero", insts.OpBLEZ, uint32(0), true),
		Entry("BGEZ taken on zero", insts.OpBGEZ, uint32(0), true),
	)

	It("panics on an opcode with no ALU evaluation", func() {
		Expect(func() { alu.Eval(insts.OpLW, 0, 0, 0, 0) }).To(Panic())
	})
})
