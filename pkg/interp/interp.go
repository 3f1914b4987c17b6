// Package interp wires the compiler and the VM together behind the
// single external entry point spec §6 describes: compile source into
// a function, then run it. Neither pkg/compiler nor pkg/vm import
// each other's package for orchestration purposes, pkg/compiler
// imports pkg/vm directly for allocation and GC-root calls, but the
// decision of "compile, then run" lives here so pkg/vm never needs to
// know a compiler exists.
package interp

import (
	"github.com/kristofer/smog/pkg/compiler"
	"github.com/kristofer/smog/pkg/vm"
)

// Result classifies how an Interpret call ended, mirroring clox's
// InterpretResult (spec §6).
type Result int

const (
	OK Result = iota
	CompileError
	RuntimeError
)

// Interpret compiles source against v's heap (so interned string and
// function literals belong to v) and, if compilation succeeds, runs
// the resulting script function on v. It returns the error a caller
// should report, if any; OK/CompileError/RuntimeError tell a caller
// like cmd/smog which process exit code to use.
func Interpret(v *vm.VM, source string) (Result, error) {
	fn, err := compiler.Compile(v, source)
	if err != nil {
		return CompileError, err
	}

	if err := v.Run(fn); err != nil {
		return RuntimeError, err
	}
	return OK, nil
}
