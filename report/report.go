// Package report renders the engine's state as tabular text: register
// banks, the ROB, reservation stations, the in-flight instruction
// window, the execution log, and a data-memory dump.
package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/tomasim/core/engine"
	"github.com/sarchlab/tomasim/core/opt"
	"github.com/sarchlab/tomasim/core/regfile"
	"github.com/sarchlab/tomasim/core/rob"
	"github.com/sarchlab/tomasim/core/rs"
)

// Registers writes a table of every architectural register that
// currently holds a nonzero value or a pending rename tag; untagged
// registers whose value is zero are omitted.
func Registers(w io.Writer, e *engine.Engine) {
	fmt.Fprintf(w, "GENERAL PURPOSE REGISTERS\n")
	fmt.Fprintf(w, "%-8s %12s %6s\n", "Register", "Value", "ROB")
	for i := uint8(0); i < regfile.NumRegisters; i++ {
		if tag, ok := e.GetIntTag(i).Get(); ok {
			fmt.Fprintf(w, "%-8s %12s %6d\n", fmt.Sprintf("R%d", i), "-", tag)
		} else if v := e.GetIntRegister(i); v != 0 {
			fmt.Fprintf(w, "%-8s %12d %6s\n", fmt.Sprintf("R%d", i), v, "-")
		}
	}
	for i := uint8(0); i < regfile.NumRegisters; i++ {
		if tag, ok := e.GetFPTag(i).Get(); ok {
			fmt.Fprintf(w, "%-8s %12s %6d\n", fmt.Sprintf("F%d", i), "-", tag)
		} else if v := e.GetFPRegister(i); v != 0 {
			fmt.Fprintf(w, "%-8s %12g %6s\n", fmt.Sprintf("F%d", i), v, "-")
		}
	}
	fmt.Fprintln(w)
}

// ROB writes a table of every live reorder-buffer entry: its pipeline
// state, readiness, destination, and value.
func ROB(w io.Writer, e *engine.Engine) {
	buf := e.ROB()
	fmt.Fprintf(w, "REORDER BUFFER\n")
	fmt.Fprintf(w, "%-5s %-5s %-6s %-12s %-13s %-6s %-12s\n",
		"Entry", "Busy", "Ready", "PC", "State", "Dest", "Value")
	for i := 0; i < buf.Size(); i++ {
		entry := buf.At(i)
		if !entry.Live {
			fmt.Fprintf(w, "%-5d %-5s %-6s %-12s %-13s %-6s %-12s\n",
				i, "no", "-", "-", "-", "-", "-")
			continue
		}
		fmt.Fprintf(w, "%-5d %-5s %-6s 0x%08x %-13s %-6s %-12s\n",
			i, "yes", yesNo(entry.Ready), entry.PC, entry.State,
			destCell(entry), valueCell(entry.Value))
	}
	fmt.Fprintln(w)
}

func destCell(e *rob.Entry) string {
	dest, ok := e.Dest.Get()
	if !ok {
		return "-"
	}
	if e.IsStore {
		return fmt.Sprintf("0x%x", dest)
	}
	if dest < regfile.NumRegisters {
		return fmt.Sprintf("R%d", dest)
	}
	return fmt.Sprintf("F%d", dest-regfile.NumRegisters)
}

// ReservationStations writes a table of every reservation station
// across all four classes, showing each operand slot as either its
// resolved value or the ROB tag it is waiting on.
func ReservationStations(w io.Writer, e *engine.Engine) {
	fmt.Fprintf(w, "RESERVATION STATIONS\n")
	fmt.Fprintf(w, "%-6s %-5s %-12s %-12s %-12s %-6s %-6s %-6s %-12s\n",
		"Name", "Busy", "PC", "Vj", "Vk", "Qj", "Qk", "Dest", "Address")
	writeStationSet(w, e.Stations().Int, "INT")
	writeStationSet(w, e.Stations().Load, "LOAD")
	writeStationSet(w, e.Stations().Add, "ADD")
	writeStationSet(w, e.Stations().Mult, "MULT")
	fmt.Fprintln(w)
}

func writeStationSet(w io.Writer, set *rs.Set, label string) {
	for i, st := range set.All() {
		name := fmt.Sprintf("%s%d", label, i+1)
		if !st.Busy {
			fmt.Fprintf(w, "%-6s %-5s %-12s %-12s %-12s %-6s %-6s %-6s %-12s\n",
				name, "no", "-", "-", "-", "-", "-", "-", "-")
			continue
		}
		pc := fmt.Sprintf("0x%08x", st.PC)
		vj, qj := operandCells(st.Vj)
		vk, qk := operandCells(st.Vk)
		dest := fmt.Sprintf("%d", st.ROBIndex)
		addr := "-"
		if st.AddrReady {
			addr = fmt.Sprintf("0x%08x", st.Addr)
		}
		fmt.Fprintf(w, "%-6s %-5s %-12s %-12s %-12s %-6s %-6s %-6s %-12s\n",
			name, "yes", pc, vj, vk, qj, qk, dest, addr)
	}
}

func operandCells(o rs.Operand) (value, tag string) {
	if o.Ready() {
		return fmt.Sprintf("0x%08x", o.Value()), "-"
	}
	t, _ := o.Tag().Get()
	return "-", fmt.Sprintf("%d", t)
}

// Window writes the in-flight instruction window: every entry's
// issue/execute/write-result/commit cycle, for entries still live.
func Window(w io.Writer, e *engine.Engine) {
	fmt.Fprintf(w, "PENDING INSTRUCTIONS STATUS\n")
	writeWindowHeader(w)
	for _, entry := range e.Window() {
		if !entry.Live {
			continue
		}
		writeWindowRow(w, entry.PC, entry.Issue, entry.Exec, entry.WriteResult, entry.Commit)
	}
	fmt.Fprintln(w)
}

// Log writes the engine's retired/squashed execution log: every
// instruction's lifecycle cycles, in the order they were logged.
func Log(w io.Writer, e *engine.Engine) {
	fmt.Fprintf(w, "EXECUTION LOG\n")
	writeWindowHeader(w)
	for _, entry := range e.Log {
		writeWindowRow(w, entry.PC, entry.Issue, entry.Exec, entry.WriteResult, entry.Commit)
	}
	fmt.Fprintln(w)
}

func writeWindowHeader(w io.Writer) {
	fmt.Fprintf(w, "%-10s %-6s %-6s %-6s %-6s\n", "PC", "Issue", "Exec", "WR", "Commit")
}

func writeWindowRow(w io.Writer, pc uint32, issue, exec, wr, commit opt.Value[int]) {
	fmt.Fprintf(w, "0x%08x %-6s %-6s %-6s %-6s\n",
		pc, cycleCell(issue), cycleCell(exec), cycleCell(wr), cycleCell(commit))
}

func cycleCell(v opt.Value[int]) string {
	n, ok := v.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

// Memory writes a hex dump of the data memory's [start, end) byte
// range, four bytes per row.
func Memory(w io.Writer, e *engine.Engine, start, end uint32) {
	fmt.Fprintf(w, "DATA MEMORY[0x%08x:0x%08x]\n", start, end)
	for addr := start; addr < end; addr += 4 {
		fmt.Fprintf(w, "0x%08x: %08x\n", addr, e.Memory().Read32(addr))
	}
}

// Status writes the window, ROB, reservation stations, and registers
// in sequence.
func Status(w io.Writer, e *engine.Engine) {
	Window(w, e)
	ROB(w, e)
	ReservationStations(w, e)
	Registers(w, e)
}

// Stats writes a one-line execution summary.
func Stats(w io.Writer, e *engine.Engine) {
	s := e.Stats()
	fmt.Fprintf(w, "cycles=%d instructions=%d ipc=%.3f\n", s.Cycles, s.Instructions, s.IPC)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func valueCell(v opt.Value[uint32]) string {
	val, ok := v.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("0x%08x", val)
}
