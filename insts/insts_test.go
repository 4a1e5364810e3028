package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/insts"
)

var _ = Describe("Insts Package", func() {
	It("has a zero-value Instruction", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	DescribeTable("Lookup round-trips String",
		func(mnemonic string) {
			op, ok := insts.Lookup(mnemonic)
			Expect(ok).To(BeTrue())
			Expect(op.String()).To(Equal(mnemonic))
		},
		Entry("ADD", "ADD"),
		Entry("ADDI", "ADDI"),
		Entry("MULTS", "MULTS"),
		Entry("LWS", "LWS"),
		Entry("SWS", "SWS"),
		Entry("BEQZ", "BEQZ"),
		Entry("JUMP", "JUMP"),
		Entry("EOP", "EOP"),
	)

	It("rejects an unknown mnemonic", func() {
		_, ok := insts.Lookup("NOPE")
		Expect(ok).To(BeFalse())
	})

	DescribeTable("Class assigns the right reservation-station class",
		func(op insts.Op, want insts.Class) {
			Expect(op.Class()).To(Equal(want))
		},
		Entry("ADD is Int", insts.OpADD, insts.ClassInt),
		Entry("ADDI is Int", insts.OpADDI, insts.ClassInt),
		Entry("BEQZ is Int", insts.OpBEQZ, insts.ClassInt),
		Entry("LW is Load", insts.OpLW, insts.ClassLoad),
		Entry("SWS is Load", insts.OpSWS, insts.ClassLoad),
		Entry("ADDS is Add", insts.OpADDS, insts.ClassAdd),
		Entry("MULTS is Mult", insts.OpMULTS, insts.ClassMult),
		Entry("DIVS is Mult", insts.OpDIVS, insts.ClassMult),
	)

	DescribeTable("FunitType assigns the right functional-unit type",
		func(op insts.Op, want insts.FunitType) {
			Expect(op.FunitType()).To(Equal(want))
		},
		Entry("ADD needs INTEGER", insts.OpADD, insts.FunitInteger),
		Entry("JUMP needs INTEGER", insts.OpJUMP, insts.FunitInteger),
		Entry("LW needs MEMORY", insts.OpLW, insts.FunitMemory),
		Entry("ADDS needs ADDER", insts.OpADDS, insts.FunitAdder),
		Entry("MULTS needs MULTIPLIER", insts.OpMULTS, insts.FunitMultiplier),
		Entry("DIVS needs DIVIDER", insts.OpDIVS, insts.FunitDivider),
	)

	It("marks floating destinations for FP ALU ops and LWS only", func() {
		Expect(insts.OpADDS.IsFPDest()).To(BeTrue())
		Expect(insts.OpLWS.IsFPDest()).To(BeTrue())
		Expect(insts.OpLW.IsFPDest()).To(BeFalse())
		Expect(insts.OpADD.IsFPDest()).To(BeFalse())
	})

	It("classifies EOP as neither branch nor memory", func() {
		Expect(insts.OpEOP.IsBranch()).To(BeFalse())
		Expect(insts.OpEOP.IsMemory()).To(BeFalse())
	})
})
