package vm

import (
	"fmt"
	"time"

	"github.com/kristofer/smog/pkg/value"
)

// defineNative installs a host function into globals the same way
// clox's defineNative does: push the name and the function onto the
// stack first so neither is collectible while the table insert itself
// might trigger a GC, then pop both.
func (v *VM) defineNative(name string, fn value.NativeFn) {
	nameObj := v.InternString(name)
	v.push(value.Obj(nameObj))
	native := v.NewNative(name, fn)
	v.push(value.Obj(native))
	v.globals.Set(nameObj, v.peek(0))
	v.pop()
	v.pop()
}

var processStart = time.Now()

// defineNatives registers every native smog ships with: clock(), the
// spec-required stopwatch primitive, plus two VM-introspection
// natives exercised by the GC and diagnostics test scenarios.
func (v *VM) defineNatives() {
	v.defineNative("clock", nativeClock)
	v.defineNative("type", v.nativeType)
	v.defineNative("gcHeapSize", v.nativeGCHeapSize)
}

// nativeClock returns seconds elapsed since the process started, as a
// smog number (spec §6 native functions: "at minimum, clock()").
func nativeClock(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil, fmt.Errorf("clock() takes no arguments.")
	}
	return value.Number(time.Since(processStart).Seconds()), nil
}

// nativeType reports a value's runtime kind as a string: "nil",
// "bool", "number", or one of the Object.Type() names ("string",
// "function", "closure", "class", "instance", ...). Grounded in
// original_source's VM-introspection natives, useful for exercising
// the error-classification scenarios in spec §7 from smog source
// itself. The result goes through InternString like any other smog
// string, so `type(1) == "number"` holds.
func (v *VM) nativeType(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Nil, fmt.Errorf("type() takes exactly one argument.")
	}
	arg := args[0]
	switch {
	case arg.IsNil():
		return value.Obj(v.InternString("nil")), nil
	case arg.IsBool():
		return value.Obj(v.InternString("bool")), nil
	case arg.IsNumber():
		return value.Obj(v.InternString("number")), nil
	default:
		return value.Obj(v.InternString(arg.AsObject().Type().String())), nil
	}
}

// nativeGCHeapSize exposes the collector's current byte accounting
// (spec §4.5 / §8's GC smoke test), so a smog program, or a Go test
// driving one, can assert the heap stays bounded without reaching
// into VM internals.
func (v *VM) nativeGCHeapSize(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.Nil, fmt.Errorf("gcHeapSize() takes no arguments.")
	}
	return value.Number(float64(v.BytesAllocated())), nil
}
