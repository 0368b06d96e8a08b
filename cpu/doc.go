// Package cpu describes the ACE3710 instruction set, and encodes single
// instructions into 16-bit machine words.
//
// The ACE3710 has sixteen 16-bit registers (r0-r15, with ra an alias for
// r14 and sp for r15). Every instruction is one 16-bit word. Instructions
// fall into six operand classes:
//
//	reg  add  rA, rB        two registers
//	imm  addi imm8, rB      8-bit immediate and register
//	sft  lshi imm5, rB      5-bit shift count and register
//	brc  beq  target        PC-relative branch, 8-bit displacement
//	jrg  jeq  rA            one register
//	imp  nop                no operands
package cpu
