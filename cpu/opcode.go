package cpu

import (
	"fmt"
	"maps"
	"slices"
)

// Class is the operand format of an instruction.
type Class int

//go:generate go tool stringer -linecomment -type=Class
const (
	CLASS_REG = Class(0) // reg
	CLASS_IMM = Class(1) // imm
	CLASS_SFT = Class(2) // sft
	CLASS_BRC = Class(3) // brc
	CLASS_JRG = Class(4) // jrg
	CLASS_IMP = Class(5) // imp
)

// Arity returns the number of operands of the class.
func (cl Class) Arity() int {
	switch cl {
	case CLASS_REG, CLASS_IMM, CLASS_SFT:
		return 2
	case CLASS_BRC, CLASS_JRG:
		return 1
	}
	return 0
}

// Opcode describes the encoding of one mnemonic.
//
// Two operand instructions place operand 1 in bits 0-7 and operand 2 in
// bits 8-11, unless Swap is set. One register instructions place the
// register in bits 0-3, or bits 8-11 when High is set.
type Opcode struct {
	Class Class
	Code  uint16 // Base encoding, with all operand fields zero.
	Swap  bool   // Operand 1 goes in bits 8-11.
	High  bool   // The single register operand goes in bits 8-11.
}

// String returns a short operand description.
func (op Opcode) String() string {
	switch op.Class {
	case CLASS_REG:
		return "rA, rB"
	case CLASS_IMM:
		return "imm8, rB"
	case CLASS_SFT:
		return "imm5, rB"
	case CLASS_BRC:
		return "target"
	case CLASS_JRG:
		return "rA"
	}
	return ""
}

// Registers maps the register names to their numbers.
var Registers = map[string]uint16{
	"r0": 0, "r1": 1, "r2": 2, "r3": 3,
	"r4": 4, "r5": 5, "r6": 6, "r7": 7,
	"r8": 8, "r9": 9, "r10": 10, "r11": 11,
	"r12": 12, "r13": 13, "r14": 14, "r15": 15,
	"ra": 14,
	"sp": 15,
}

func reg(code uint16) Opcode  { return Opcode{Class: CLASS_REG, Code: code} }
func imm(code uint16) Opcode  { return Opcode{Class: CLASS_IMM, Code: code} }
func sft(code uint16) Opcode  { return Opcode{Class: CLASS_SFT, Code: code} }
func brc(code uint16) Opcode  { return Opcode{Class: CLASS_BRC, Code: code} }
func jrg(code uint16) Opcode  { return Opcode{Class: CLASS_JRG, Code: code} }
func scnd(code uint16) Opcode { return Opcode{Class: CLASS_JRG, Code: code, High: true} }
func imp(code uint16) Opcode  { return Opcode{Class: CLASS_IMP, Code: code} }
func swap(op Opcode) Opcode   { op.Swap = true; return op }

// opcodeMap is the instruction set.
var opcodeMap = map[string]Opcode{
	"add":   reg(0x0050),
	"addi":  imm(0x5000),
	"addu":  reg(0x0060),
	"addui": imm(0x6000),
	"addc":  reg(0x0070),
	"addci": imm(0x7000),
	"mul":   reg(0x00e0),
	"muli":  imm(0xe000),
	"sub":   reg(0x0090),
	"subi":  imm(0x9000),
	"subc":  reg(0x00a0),
	"subci": imm(0xa000),
	"cmp":   reg(0x00b0),
	"cmpi":  imm(0xb000),
	"and":   reg(0x0010),
	"andi":  imm(0x1000),
	"or":    reg(0x0020),
	"ori":   imm(0x2000),
	"xor":   reg(0x0030),
	"xori":  imm(0x3000),
	"mov":   reg(0x00d0),
	"movi":  imm(0xd000),
	"lsh":   reg(0x8040),
	"lshi":  sft(0x8000),
	"ashu":  reg(0x8060),
	"ashui": sft(0x8020),
	"lui":   imm(0xf000),
	"load":  swap(reg(0x4000)),
	"stor":  swap(reg(0x4040)),
	"snxb":  reg(0x4020),
	"zrxb":  reg(0x4060),
	"jal":   swap(reg(0x4080)),
	"tbit":  reg(0x40a0),
	"tbiti": reg(0x40e0),
	"lpr":   swap(reg(0x4010)),
	"spr":   swap(reg(0x4050)),
	"nop":   imp(0x0020),

	"seq": scnd(0x40d0),
	"sne": scnd(0x40d1),
	"scs": scnd(0x40d2),
	"scc": scnd(0x40d3),
	"shi": scnd(0x40d4),
	"sls": scnd(0x40d5),
	"sgt": scnd(0x40d6),
	"sle": scnd(0x40d7),
	"sfs": scnd(0x40d8),
	"sfc": scnd(0x40d9),
	"slo": scnd(0x40da),
	"shs": scnd(0x40db),
	"slt": scnd(0x40dc),
	"sge": scnd(0x40dd),
	"suc": scnd(0x40de),

	"beq": brc(0xc000),
	"bne": brc(0xc100),
	"bcs": brc(0xc200),
	"bcc": brc(0xc300),
	"bhi": brc(0xc400),
	"bls": brc(0xc500),
	"bgt": brc(0xc600),
	"ble": brc(0xc700),
	"bfs": brc(0xc800),
	"bfc": brc(0xc900),
	"blo": brc(0xca00),
	"bhs": brc(0xcb00),
	"blt": brc(0xcc00),
	"bge": brc(0xcd00),
	"buc": brc(0xce00),

	"jeq": jrg(0x40c0),
	"jne": jrg(0x41c0),
	"jcs": jrg(0x42c0),
	"jcc": jrg(0x43c0),
	"jhi": jrg(0x44c0),
	"jls": jrg(0x45c0),
	"jgt": jrg(0x46c0),
	"jle": jrg(0x47c0),
	"jfs": jrg(0x48c0),
	"jfc": jrg(0x49c0),
	"jlo": jrg(0x4ac0),
	"jhs": jrg(0x4bc0),
	"jlt": jrg(0x4cc0),
	"jge": jrg(0x4dc0),
	"juc": jrg(0x4ec0),

	"excp": jrg(0x40b0),
	"di":   imp(0x4030),
	"ei":   imp(0x4070),
	"retx": imp(0x4090),
	"wait": imp(0x0000),
}

// Lookup returns the encoding of a mnemonic.
func Lookup(mnemonic string) (op Opcode, ok bool) {
	op, ok = opcodeMap[mnemonic]
	return
}

// Mnemonics returns every mnemonic, sorted.
func Mnemonics() []string {
	return slices.Sorted(maps.Keys(opcodeMap))
}

// Encode assembles one instruction. pc is the address of the instruction,
// and wordSize the number of addresses one instruction occupies. Operands
// are given as their 16-bit values; negative immediates are in two's
// complement.
func Encode(mnemonic string, args []uint16, pc uint16, wordSize int) (word uint16, err error) {
	op, ok := opcodeMap[mnemonic]
	if !ok {
		err = ErrInstruction(mnemonic)
		return
	}

	if len(args) != op.Class.Arity() {
		err = ErrArgCount(op.Class.Arity())
		return
	}

	switch op.Class {
	case CLASS_REG, CLASS_IMM, CLASS_SFT:
		a, b := args[0], args[1]
		switch op.Class {
		case CLASS_REG:
			if a > 15 {
				err = &ErrOperand{Index: 0, Err: ErrArg1Register}
			}
			a &= 0x000f
		case CLASS_IMM:
			if hi := a & 0xff00; hi != 0x0000 && hi != 0xff00 {
				err = &ErrOperand{Index: 0, Err: ErrArg1Immediate}
			}
			a &= 0x00ff
		case CLASS_SFT:
			if hi := a & 0xffe0; hi != 0x0000 && hi != 0xffe0 {
				err = &ErrOperand{Index: 0, Err: ErrArg1Shift}
			}
			a &= 0x001f
		}
		if err != nil {
			return
		}
		if b > 15 {
			err = &ErrOperand{Index: 1, Err: ErrArg2Register}
			return
		}
		if op.Swap {
			word = op.Code | a<<8 | b
		} else {
			word = op.Code | b<<8 | a
		}
	case CLASS_BRC:
		disp := args[0] - pc - uint16(wordSize)
		if hi := disp & 0xff80; hi != 0x0000 && hi != 0xff80 {
			err = &ErrOperand{Index: 0, Err: ErrDisplacement}
			return
		}
		word = op.Code | disp&0x00ff
	case CLASS_JRG:
		r := args[0]
		if r > 15 {
			err = &ErrOperand{Index: 0, Err: ErrArgRegister}
			return
		}
		if op.High {
			word = op.Code | r<<8
		} else {
			word = op.Code | r
		}
	case CLASS_IMP:
		word = op.Code
	default:
		err = fmt.Errorf("%v: %w", mnemonic, ErrInstruction(mnemonic))
	}

	return
}
