package report_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/core/engine"
	"github.com/sarchlab/tomasim/insts"
	"github.com/sarchlab/tomasim/report"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
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

var _ = Describe("Report", func() {
	var e *engine.Engine

	BeforeEach(func() {
		e = newEngine()
		prog := []insts.Instruction{
			{Op: insts.OpADDI, Src1: 0, Dest: 1, Imm: 5},
			{Op: insts.OpADDI, Src1: 0, Dest: 2, Imm: 7},
			{Op: insts.OpADD, Src1: 1, Src2: 2, Dest: 3},
		}
		e.LoadProgram(0, prog, len(prog)+1)
		e.Run(0)
	})

	It("renders a register table including the committed values", func() {
		var b strings.Builder
		report.Registers(&b, e)
		out := b.String()
		Expect(out).To(ContainSubstring("GENERAL PURPOSE REGISTERS"))
		Expect(out).To(ContainSubstring("R1"))
		Expect(out).To(ContainSubstring("R3"))
	})

	It("renders a ROB table with every slot idle after completion", func() {
		var b strings.Builder
		report.ROB(&b, e)
		Expect(b.String()).To(ContainSubstring("REORDER BUFFER"))
		Expect(b.String()).NotTo(ContainSubstring("yes"))
	})

	It("renders a reservation-station table for all four classes", func() {
		var b strings.Builder
		report.ReservationStations(&b, e)
		out := b.String()
		Expect(out).To(ContainSubstring("INT1"))
		Expect(out).To(ContainSubstring("LOAD1"))
		Expect(out).To(ContainSubstring("ADD1"))
		Expect(out).To(ContainSubstring("MULT1"))
	})

	It("renders the execution log in program order", func() {
		var b strings.Builder
		report.Log(&b, e)
		out := b.String()
		Expect(out).To(ContainSubstring("EXECUTION LOG"))
		Expect(out).To(ContainSubstring("0x00000000"))
		Expect(out).To(ContainSubstring("0x00000008"))
		Expect(strings.Index(out, "0x00000000")).To(BeNumerically("<", strings.Index(out, "0x00000004")))
		Expect(strings.Index(out, "0x00000004")).To(BeNumerically("<", strings.Index(out, "0x00000008")))
	})

	It("renders a memory dump over a byte range", func() {
		e.SetIntRegister(5, 100)
		var b strings.Builder
		report.Memory(&b, e, 96, 104)
		Expect(b.String()).To(ContainSubstring("DATA MEMORY"))
	})

	It("renders a one-line stats summary", func() {
		var b strings.Builder
		report.Stats(&b, e)
		Expect(b.String()).To(ContainSubstring("instructions=3"))
	})

	It("renders the full status report without panicking", func() {
		var b strings.Builder
		Expect(func() { report.Status(&b, e) }).NotTo(Panic())
	})
})
