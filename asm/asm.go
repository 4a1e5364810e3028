// Package asm parses the text assembly format the simulator loads
// programs from. One instruction per line, with an optional `label:`
// prefix; operands use `Rn`/`Fn` register syntax, `imm(Rn)` memory
// addressing, and bare integers for immediates or branch targets given
// by label.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/tomasim/insts"
)

// Parse assembles program text into a decoded instruction stream. It
// resolves labels to PC-relative byte displacements:
// (label_index - current_index - 1) << 2.
func Parse(text string) ([]insts.Instruction, error) {
	lines := splitLines(text)

	labels := map[string]int{}
	var mnemonicLines [][]string
	for _, raw := range lines {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if colon := strings.IndexByte(line, ':'); colon >= 0 && !strings.ContainsAny(line[:colon], " \t(") {
			label := strings.TrimSpace(line[:colon])
			labels[label] = len(mnemonicLines)
			line = strings.TrimSpace(line[colon+1:])
			if line == "" {
				continue
			}
		}
		fields := tokenize(line)
		if len(fields) == 0 {
			continue
		}
		mnemonicLines = append(mnemonicLines, fields)
	}

	program := make([]insts.Instruction, len(mnemonicLines))
	for i, fields := range mnemonicLines {
		instr, err := assembleLine(fields, i, labels)
		if err != nil {
			return nil, fmt.Errorf("asm: instruction %d: %w", i, err)
		}
		program[i] = instr
	}
	return program, nil
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func tokenize(line string) []string {
	line = strings.ReplaceAll(line, ",", " ")
	return strings.Fields(line)
}

// assembleLine decodes one mnemonic plus its operand tokens into an
// Instruction. index is the instruction's position in the stream,
// used to resolve a label operand to a PC-relative displacement.
func assembleLine(fields []string, index int, labels map[string]int) (insts.Instruction, error) {
	op, ok := insts.Lookup(strings.ToUpper(fields[0]))
	if !ok {
		return insts.Instruction{}, fmt.Errorf("unknown opcode %q", fields[0])
	}
	operands := fields[1:]

	switch {
	case op == insts.OpEOP:
		return insts.Instruction{Op: op}, nil

	case op.IsIntReg() || op.IsFPALU():
		if len(operands) != 3 {
			return insts.Instruction{}, fmt.Errorf("%s wants 3 register operands", op)
		}
		dest, err := regIndex(operands[0])
		if err != nil {
			return insts.Instruction{}, err
		}
		src1, err := regIndex(operands[1])
		if err != nil {
			return insts.Instruction{}, err
		}
		src2, err := regIndex(operands[2])
		if err != nil {
			return insts.Instruction{}, err
		}
		return insts.Instruction{Op: op, Dest: dest, Src1: src1, Src2: src2}, nil

	case op.IsIntImm():
		if len(operands) != 3 {
			return insts.Instruction{}, fmt.Errorf("%s wants dest, src, immediate", op)
		}
		dest, err := regIndex(operands[0])
		if err != nil {
			return insts.Instruction{}, err
		}
		src1, err := regIndex(operands[1])
		if err != nil {
			return insts.Instruction{}, err
		}
		imm, err := strconv.ParseInt(operands[2], 10, 32)
		if err != nil {
			return insts.Instruction{}, fmt.Errorf("bad immediate %q: %w", operands[2], err)
		}
		return insts.Instruction{Op: op, Dest: dest, Src1: src1, Imm: int32(imm)}, nil

	case op.IsLoad():
		if len(operands) != 2 {
			return insts.Instruction{}, fmt.Errorf("%s wants dest, imm(base)", op)
		}
		dest, err := regIndex(operands[0])
		if err != nil {
			return insts.Instruction{}, err
		}
		imm, base, err := memOperand(operands[1])
		if err != nil {
			return insts.Instruction{}, err
		}
		return insts.Instruction{Op: op, Dest: dest, Src1: base, Imm: imm}, nil

	case op.IsStore():
		if len(operands) != 2 {
			return insts.Instruction{}, fmt.Errorf("%s wants src, imm(base)", op)
		}
		src, err := regIndex(operands[0])
		if err != nil {
			return insts.Instruction{}, err
		}
		imm, base, err := memOperand(operands[1])
		if err != nil {
			return insts.Instruction{}, err
		}
		return insts.Instruction{Op: op, Src2: src, Src1: base, Imm: imm}, nil

	case op == insts.OpJUMP:
		if len(operands) != 1 {
			return insts.Instruction{}, fmt.Errorf("JUMP wants one label operand")
		}
		disp, err := resolveTarget(operands[0], index, labels)
		if err != nil {
			return insts.Instruction{}, err
		}
		return insts.Instruction{Op: op, Imm: disp}, nil

	case op.IsBranch():
		if len(operands) != 2 {
			return insts.Instruction{}, fmt.Errorf("%s wants a register and a label", op)
		}
		cond, err := regIndex(operands[0])
		if err != nil {
			return insts.Instruction{}, err
		}
		disp, err := resolveTarget(operands[1], index, labels)
		if err != nil {
			return insts.Instruction{}, err
		}
		return insts.Instruction{Op: op, Src1: cond, Imm: disp}, nil

	default:
		return insts.Instruction{}, fmt.Errorf("opcode %s has no assembler rule", op)
	}
}

// regIndex parses an `Rn` or `Fn` register operand, returning its bare
// index (the bank is implied by the opcode, not the prefix).
func regIndex(tok string) (uint8, error) {
	if len(tok) < 2 || (tok[0] != 'R' && tok[0] != 'r' && tok[0] != 'F' && tok[0] != 'f') {
		return 0, fmt.Errorf("expected a register operand, got %q", tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil {
		return 0, fmt.Errorf("bad register index %q: %w", tok, err)
	}
	return uint8(n), nil
}

// memOperand parses `imm(Rn)` memory addressing syntax.
func memOperand(tok string) (imm int32, base uint8, err error) {
	open := strings.IndexByte(tok, '(')
	shut := strings.IndexByte(tok, ')')
	if open < 0 || shut < open {
		return 0, 0, fmt.Errorf("expected imm(Rn), got %q", tok)
	}
	n, err := strconv.ParseInt(tok[:open], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("bad memory offset in %q: %w", tok, err)
	}
	reg, err := regIndex(tok[open+1 : shut])
	if err != nil {
		return 0, 0, err
	}
	return int32(n), reg, nil
}

// resolveTarget resolves a branch/jump operand: a bare integer is
// taken as a literal displacement, otherwise it is a label looked up
// and converted to a PC-relative byte displacement.
func resolveTarget(tok string, index int, labels map[string]int) (int32, error) {
	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		return int32(n), nil
	}
	target, ok := labels[tok]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", tok)
	}
	return int32((target - index - 1) << 2), nil
}
