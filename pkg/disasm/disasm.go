// Package disasm renders a compiled chunk as human-readable text, the
// way the `smog disasm` CLI verb and bytecode.Disassemble in the
// teacher repo do, adapted here to a non-interactive listing rather
// than the teacher's breakpoint-and-step debugger, since source-level
// stepping is explicitly out of scope (spec's Non-goals).
package disasm

import (
	"fmt"
	"strings"

	"github.com/kristofer/smog/pkg/opcode"
	"github.com/kristofer/smog/pkg/value"
)

// Function renders fn's chunk, and recursively every function nested
// in its constant pool, as a disassembly listing headed by each
// function's name.
func Function(fn *value.ObjFunction) string {
	var b strings.Builder
	disassembleFunction(&b, fn)
	return b.String()
}

func disassembleFunction(b *strings.Builder, fn *value.ObjFunction) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	fmt.Fprintf(b, "== %s ==\n", name)

	code := fn.Chunk.Code
	for offset := 0; offset < len(code); {
		offset = instruction(b, fn, offset)
	}

	for _, c := range fn.Chunk.Constants {
		if nested, ok := value.AsFunction(c); ok {
			b.WriteByte('\n')
			disassembleFunction(b, nested)
		}
	}
}

func instruction(b *strings.Builder, fn *value.ObjFunction, offset int) int {
	code := fn.Chunk.Code
	line := fn.Chunk.Lines[offset]

	fmt.Fprintf(b, "%04d ", offset)
	if offset > 0 && line == fn.Chunk.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(b, "%4d ", line)
	}

	op := opcode.Op(code[offset])
	switch op {
	case opcode.Constant, opcode.GetGlobal, opcode.DefineGlobal, opcode.SetGlobal,
		opcode.GetProperty, opcode.SetProperty, opcode.GetSuper, opcode.Class, opcode.Method:
		return constantInstruction(b, op, fn, offset)

	case opcode.GetLocal, opcode.SetLocal, opcode.GetUpvalue, opcode.SetUpvalue, opcode.Call:
		return byteInstruction(b, op, code, offset)

	case opcode.Invoke, opcode.SuperInvoke:
		return invokeInstruction(b, op, fn, offset)

	case opcode.Jump, opcode.JumpIfFalse:
		return jumpInstruction(b, op, 1, code, offset)
	case opcode.Loop:
		return jumpInstruction(b, op, -1, code, offset)

	case opcode.Closure:
		return closureInstruction(b, fn, offset)

	default:
		fmt.Fprintf(b, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(b *strings.Builder, op opcode.Op, fn *value.ObjFunction, offset int) int {
	idx := fn.Chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, idx, fn.Chunk.Constants[idx].String())
	return offset + 2
}

func byteInstruction(b *strings.Builder, op opcode.Op, code []byte, offset int) int {
	slot := code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}

func invokeInstruction(b *strings.Builder, op opcode.Op, fn *value.ObjFunction, offset int) int {
	idx := fn.Chunk.Code[offset+1]
	argCount := fn.Chunk.Code[offset+2]
	fmt.Fprintf(b, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, fn.Chunk.Constants[idx].String())
	return offset + 3
}

func jumpInstruction(b *strings.Builder, op opcode.Op, sign int, code []byte, offset int) int {
	jump := int(code[offset+1])<<8 | int(code[offset+2])
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func closureInstruction(b *strings.Builder, fn *value.ObjFunction, offset int) int {
	idx := fn.Chunk.Code[offset+1]
	offset += 2
	fmt.Fprintf(b, "%-16s %4d '%s'\n", opcode.Closure, idx, fn.Chunk.Constants[idx].String())

	nested, _ := value.AsFunction(fn.Chunk.Constants[idx])
	for i := 0; i < nested.UpvalueCount; i++ {
		isLocal := fn.Chunk.Code[offset]
		index := fn.Chunk.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(b, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
