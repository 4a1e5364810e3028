package engine

import "github.com/sarchlab/tomasim/core/opt"

// WindowEntry is the diagnostic timing record for one in-flight
// instruction, indexed the same as its ROB slot. It mirrors the ROB
// entry's lifecycle but survives purely for reporting — clearing it
// has no effect on simulation state.
type WindowEntry struct {
	Live        bool
	PC          uint32
	Issue       opt.Value[int]
	Exec        opt.Value[int]
	WriteResult opt.Value[int]
	Commit      opt.Value[int]
}

// LogEntry is a completed (or squash-evicted) window record, retained
// for the execution log after its ROB slot is released.
type LogEntry struct {
	PC          uint32
	Issue       opt.Value[int]
	Exec        opt.Value[int]
	WriteResult opt.Value[int]
	Commit      opt.Value[int]
}

func (w WindowEntry) toLog() LogEntry {
	return LogEntry{
		PC:          w.PC,
		Issue:       w.Issue,
		Exec:        w.Exec,
		WriteResult: w.WriteResult,
		Commit:      w.Commit,
	}
}
