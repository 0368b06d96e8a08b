// Package asm implements the ACE3710 macro assembler.
//
// Assembly runs three passes over the source. The first discovers macro
// definitions. The second sizes every segment, defining global labels and
// queueing constants, which are then resolved in dependency order. The
// third encodes instructions and data into the segment buffers; at each
// global declaration, and at each macro expansion, it first scans ahead to
// define the local (@-prefixed) symbols of the region.
//
// Source lines have the forms:
//
//	name:  [statement]   ; column 0 label
//	name = expr          ; column 0 constant
//	    .directive args  ; indented statement
//	    mnemonic args
//	    macro args
//
// Conditional assembly, defines, includes and macro definitions are
// processed in every pass; segment directives from the second pass on;
// and .error and .warning only while emitting code.
package asm
