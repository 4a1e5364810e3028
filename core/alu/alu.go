// Package alu implements the arithmetic/logic/branch-resolution
// function invoked during EXECUTE. It is a pure function over
// already-resolved operand values: by the time a reservation station
// dispatches, Vj/Vk already hold the operand values, so the ALU never
// touches register state.
package alu

import (
	"fmt"
	"math"

	"github.com/sarchlab/tomasim/insts"
)

// Eval computes the result of an ALU opcode. v1/v2 are the station's
// resolved operands (Vj/Vk); imm is the instruction's immediate; pc is
// the owning instruction's PC. Integer ops follow host machine
// semantics for overflow/divide-by-zero (no recoverable runtime errors
// — division by zero panics like any Go integer division).
//
// Eval does not handle loads/stores (memory access is handled by the
// engine's memory-disambiguation logic) or the "not-taken" PC+4
// default for non-branch, non-ALU opcodes.
func Eval(op insts.Op, v1, v2 uint32, imm int32, pc uint32) uint32 {
	switch op {
	case insts.OpADD:
		return v1 + v2
	case insts.OpADDI:
		return uint32(int32(v1) + imm)
	case insts.OpSUB:
		return v1 - v2
	case insts.OpSUBI:
		return uint32(int32(v1) - imm)
	case insts.OpXOR:
		return v1 ^ v2
	case insts.OpAND:
		return v1 & v2
	case insts.OpMULT:
		return uint32(int32(v1) * int32(v2))
	case insts.OpDIV:
		return uint32(int32(v1) / int32(v2))
	case insts.OpADDS:
		return math.Float32bits(math.Float32frombits(v1) + math.Float32frombits(v2))
	case insts.OpSUBS:
		return math.Float32bits(math.Float32frombits(v1) - math.Float32frombits(v2))
	case insts.OpMULTS:
		return math.Float32bits(math.Float32frombits(v1) * math.Float32frombits(v2))
	case insts.OpDIVS:
		return math.Float32bits(math.Float32frombits(v1) / math.Float32frombits(v2))
	case insts.OpJUMP:
		return uint32(int32(pc) + 4 + imm)
	default:
		if op.IsBranch() {
			return evalBranch(op, v1, imm, pc)
		}
		panic(fmt.Sprintf("alu: opcode %v has no ALU evaluation", op))
	}
}

// evalBranch resolves a conditional branch: PC+4 if not taken, or
// PC+4+displacement if taken.
func evalBranch(op insts.Op, v1 uint32, imm int32, pc uint32) uint32 {
	reg := int32(v1)
	var taken bool
	switch op {
	case insts.OpBEQZ:
		taken = reg == 0
	case insts.OpBNEZ:
		taken = reg != 0
	case insts.OpBGEZ:
		taken = reg >= 0
	case insts.OpBLEZ:
		taken = reg <= 0
	case insts.OpBGTZ:
		taken = reg > 0
	case insts.OpBLTZ:
		taken = reg < 0
	}
	notTaken := pc + 4
	if taken {
		return uint32(int32(notTaken) + imm)
	}
	return notTaken
}
