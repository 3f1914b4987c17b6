// Package vm implements the bytecode virtual machine for smog.
//
// The VM is a stack-based interpreter that executes the bytecode the
// compiler emits. It's the final stage in the execution pipeline:
//
//   Source Code -> Lexer -> Compiler (single pass) -> Chunk -> VM -> Execution
//
// Virtual Machine Architecture:
//
// The VM keeps one fixed-size value stack, a bounded array of
// call frames, a globals table, and the interned-string table, plus
// the bookkeeping the tracing garbage collector needs (the live
// object list, the gray stack, and the heap-growth threshold). See
// gc.go for the collector and alloc.go for the allocation path every
// heap object goes through.
//
// Execution Model:
//
// The VM executes instructions sequentially using an instruction
// pointer private to the current call frame. Each opcode manipulates
// the value stack, the current frame's local slots, the globals
// table, or control flow (ip). CALL pushes a new frame; RETURN pops
// one and resumes the caller with its result on the stack.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/kristofer/smog/pkg/opcode"
	"github.com/kristofer/smog/pkg/value"
	"go.uber.org/zap"
)

// FramesMax bounds the number of nested call frames (spec §3
// invariant 5 / §4.4 "Stack overflow.").
const FramesMax = 64

// StackMax is the fixed capacity of the value stack. It is never
// reallocated for the life of a VM: open upvalues hold (stack, index)
// references (see value.ObjUpvalue) that would dangle if the backing
// array ever moved.
const StackMax = FramesMax * 256

// CallFrame records one active function invocation: the closure being
// executed, its instruction pointer, and the base index into the VM's
// value stack where its locals (slot 0 = receiver/unused) begin.
type CallFrame struct {
	Closure *value.ObjClosure
	IP      int
	Slots   int
}

// VM is one independent interpreter instance. Multiple VMs never
// share heap objects (spec §5); each owns its own stack, object list,
// and string table.
type VM struct {
	stack      [StackMax]value.Value
	stackTop   int
	frames     [FramesMax]CallFrame
	frameCount int

	globals *value.Table
	strings *value.Table // intern table; a weak set, not a GC root

	openUpvalues *value.ObjUpvalue // sorted by decreasing StackIndex

	objects        value.Object // head of the intrusive live-object list
	bytesAllocated int
	nextGC         int
	grayStack      []value.Object
	stressGC       bool

	initString *value.ObjString

	// compilerRoots holds the in-progress compiler chain's function
	// objects (spec §4.5 mark-roots item 5): a GC triggered by string
	// interning mid-compile must not collect a function the compiler
	// hasn't finished emitting into yet.
	compilerRoots []*value.ObjFunction

	out    io.Writer
	logger *zap.Logger
}

const initialNextGC = 1024 * 1024

// Option configures a VM at construction time.
type Option func(*VM)

// WithLogger attaches a structured logger for GC/VM telemetry (see
// gc.go and tracer.go). The zero value is zap.NewNop().
func WithLogger(l *zap.Logger) Option { return func(v *VM) { v.logger = l } }

// WithStdout redirects PRINT output away from os.Stdout.
func WithStdout(w io.Writer) Option { return func(v *VM) { v.out = w } }

// WithGCStress forces a collection on every allocation, mirroring
// original_source's DEBUG_STRESS_GC: used by GC tests that want a
// cycle without waiting for the heap-growth heuristic.
func WithGCStress(stress bool) Option { return func(v *VM) { v.stressGC = stress } }

// New creates a fresh VM (spec §6 initVM). Callers should arrange to
// stop using it rather than call a teardown function explicitly ,
// Go's own GC reclaims it once unreferenced; Free exists only to mirror
// the spec's external interface.
func New(opts ...Option) *VM {
	v := &VM{
		globals: value.NewTable(),
		strings: value.NewTable(),
		nextGC:  initialNextGC,
		out:     os.Stdout,
		logger:  zap.NewNop(),
	}
	v.initString = v.InternString("init")
	v.defineNatives()
	return v
}

// Free releases every heap object the VM owns (spec §6 freeVM). After
// Free, the VM must not be reused.
func (v *VM) Free() {
	v.objects = nil
	v.globals = value.NewTable()
	v.strings = value.NewTable()
	v.openUpvalues = nil
	v.grayStack = nil
	v.bytesAllocated = 0
}

// Globals exposes the globals table so the host can register natives
// between interpret calls (spec §6 native registration).
func (v *VM) Globals() *value.Table { return v.globals }

func (v *VM) push(val value.Value) {
	v.stack[v.stackTop] = val
	v.stackTop++
}

func (v *VM) pop() value.Value {
	v.stackTop--
	return v.stack[v.stackTop]
}

func (v *VM) peek(distance int) value.Value {
	return v.stack[v.stackTop-1-distance]
}

func (v *VM) resetStack() {
	v.stackTop = 0
	v.frameCount = 0
	v.openUpvalues = nil
}

// Run wraps fn in a closure, installs the first call frame, and
// executes until the outermost RETURN or a runtime error. It is the
// VM half of spec §6's interpret: the compiler half lives in
// pkg/compiler, wired together by pkg/interp.
func (v *VM) Run(fn *value.ObjFunction) error {
	v.resetStack()
	v.push(value.Obj(fn)) // keep fn reachable while the closure is allocated
	closure := v.NewClosure(fn)
	v.pop()
	v.push(value.Obj(closure))
	v.callClosure(closure, 0)
	return v.run()
}

func (v *VM) currentFrame() *CallFrame { return &v.frames[v.frameCount-1] }

func (v *VM) readByte(f *CallFrame) byte {
	b := f.Closure.Function.Chunk.Code[f.IP]
	f.IP++
	return b
}

func (v *VM) readShort(f *CallFrame) int {
	hi := v.readByte(f)
	lo := v.readByte(f)
	return int(hi)<<8 | int(lo)
}

func (v *VM) readConstant(f *CallFrame) value.Value {
	return f.Closure.Function.Chunk.Constants[v.readByte(f)]
}

func (v *VM) readString(f *CallFrame) *value.ObjString {
	s, _ := value.AsString(v.readConstant(f))
	return s
}

// run is the main bytecode dispatch loop.
func (v *VM) run() error {
	frame := v.currentFrame()

	for {
		v.trace(frame)

		op := opcode.Op(v.readByte(frame))
		switch op {
		case opcode.Constant:
			v.push(v.readConstant(frame))

		case opcode.Nil:
			v.push(value.Nil)
		case opcode.True:
			v.push(value.Bool(true))
		case opcode.False:
			v.push(value.Bool(false))

		case opcode.Pop:
			v.pop()

		case opcode.GetLocal:
			slot := v.readByte(frame)
			v.push(v.stack[frame.Slots+int(slot)])

		case opcode.SetLocal:
			slot := v.readByte(frame)
			v.stack[frame.Slots+int(slot)] = v.peek(0)

		case opcode.GetGlobal:
			name := v.readString(frame)
			val, ok := v.globals.Get(name)
			if !ok {
				return v.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			v.push(val)

		case opcode.DefineGlobal:
			name := v.readString(frame)
			v.globals.Set(name, v.peek(0))
			v.pop()

		case opcode.SetGlobal:
			name := v.readString(frame)
			if v.globals.Set(name, v.peek(0)) {
				v.globals.Delete(name)
				return v.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}

		case opcode.GetUpvalue:
			slot := v.readByte(frame)
			v.push(frame.Closure.Upvalues[slot].Get())

		case opcode.SetUpvalue:
			slot := v.readByte(frame)
			frame.Closure.Upvalues[slot].Set(v.peek(0))

		case opcode.GetProperty:
			if err := v.execGetProperty(frame); err != nil {
				return err
			}

		case opcode.SetProperty:
			if err := v.execSetProperty(frame); err != nil {
				return err
			}

		case opcode.GetSuper:
			name := v.readString(frame)
			superclass, _ := value.AsClass(v.pop())
			if err := v.bindMethod(frame, superclass, name); err != nil {
				return err
			}

		case opcode.Equal:
			b := v.pop()
			a := v.pop()
			v.push(value.Bool(value.Equal(a, b)))

		case opcode.Greater:
			if err := v.binaryNumberOp(frame, func(a, b float64) value.Value { return value.Bool(a > b) }); err != nil {
				return err
			}
		case opcode.Less:
			if err := v.binaryNumberOp(frame, func(a, b float64) value.Value { return value.Bool(a < b) }); err != nil {
				return err
			}

		case opcode.Add:
			if err := v.execAdd(frame); err != nil {
				return err
			}
		case opcode.Subtract:
			if err := v.binaryNumberOp(frame, func(a, b float64) value.Value { return value.Number(a - b) }); err != nil {
				return err
			}
		case opcode.Multiply:
			if err := v.binaryNumberOp(frame, func(a, b float64) value.Value { return value.Number(a * b) }); err != nil {
				return err
			}
		case opcode.Divide:
			if err := v.binaryNumberOp(frame, func(a, b float64) value.Value { return value.Number(a / b) }); err != nil {
				return err
			}

		case opcode.Not:
			v.push(value.Bool(v.pop().IsFalsey()))

		case opcode.Negate:
			if !v.peek(0).IsNumber() {
				return v.runtimeError(frame, "Operand must be a number.")
			}
			v.push(value.Number(-v.pop().AsNumber()))

		case opcode.Print:
			fmt.Fprintln(v.out, v.pop().String())

		case opcode.Jump:
			offset := v.readShort(frame)
			frame.IP += offset

		case opcode.JumpIfFalse:
			offset := v.readShort(frame)
			if v.peek(0).IsFalsey() {
				frame.IP += offset
			}

		case opcode.Loop:
			offset := v.readShort(frame)
			frame.IP -= offset

		case opcode.Call:
			argCount := int(v.readByte(frame))
			if err := v.callValue(v.peek(argCount), argCount); err != nil {
				return err
			}
			frame = v.currentFrame()

		case opcode.Invoke:
			name := v.readString(frame)
			argCount := int(v.readByte(frame))
			if err := v.invoke(name, argCount); err != nil {
				return err
			}
			frame = v.currentFrame()

		case opcode.SuperInvoke:
			name := v.readString(frame)
			argCount := int(v.readByte(frame))
			superclass, _ := value.AsClass(v.pop())
			if err := v.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}
			frame = v.currentFrame()

		case opcode.Closure:
			fn, _ := value.AsFunction(v.readConstant(frame))
			closure := v.NewClosure(fn)
			v.push(value.Obj(closure))
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := v.readByte(frame)
				index := int(v.readByte(frame))
				if isLocal != 0 {
					closure.Upvalues[i] = v.captureUpvalue(frame.Slots + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}

		case opcode.CloseUpvalue:
			v.closeUpvalues(v.stackTop - 1)
			v.pop()

		case opcode.Return:
			result := v.pop()
			v.closeUpvalues(frame.Slots)
			v.frameCount--
			if v.frameCount == 0 {
				v.pop()
				return nil
			}
			v.stackTop = frame.Slots
			v.push(result)
			frame = v.currentFrame()

		case opcode.Class:
			name := v.readString(frame)
			v.push(value.Obj(v.NewClass(name)))

		case opcode.Inherit:
			superVal := v.peek(1)
			superclass, ok := value.AsClass(superVal)
			if !ok {
				return v.runtimeError(frame, "Superclass must be a class.")
			}
			subclass, _ := value.AsClass(v.peek(0))
			superclass.Methods.Each(func(k *value.ObjString, val value.Value) {
				subclass.Methods.Set(k, val)
			})
			v.pop() // subclass

		case opcode.Method:
			name := v.readString(frame)
			v.defineMethod(frame, name)

		default:
			return v.runtimeError(frame, "Unknown opcode %d.", op)
		}
	}
}

func (v *VM) binaryNumberOp(frame *CallFrame, op func(a, b float64) value.Value) error {
	if !v.peek(0).IsNumber() || !v.peek(1).IsNumber() {
		return v.runtimeError(frame, "Operands must be numbers.")
	}
	b := v.pop().AsNumber()
	a := v.pop().AsNumber()
	v.push(op(a, b))
	return nil
}

func (v *VM) execAdd(frame *CallFrame) error {
	bStr, bIsStr := value.AsString(v.peek(0))
	aStr, aIsStr := value.AsString(v.peek(1))
	if aIsStr && bIsStr {
		v.pop()
		v.pop()
		v.push(value.Obj(v.InternString(aStr.Chars + bStr.Chars)))
		return nil
	}
	if v.peek(0).IsNumber() && v.peek(1).IsNumber() {
		b := v.pop().AsNumber()
		a := v.pop().AsNumber()
		v.push(value.Number(a + b))
		return nil
	}
	return v.runtimeError(frame, "Operands must be two numbers or two strings.")
}

func (v *VM) execGetProperty(frame *CallFrame) error {
	instance, ok := value.AsInstance(v.peek(0))
	if !ok {
		return v.runtimeError(frame, "Only instances have properties.")
	}
	name := v.readString(frame)

	if val, ok := instance.Fields.Get(name); ok {
		v.pop() // instance
		v.push(val)
		return nil
	}
	return v.bindMethod(frame, instance.Class, name)
}

func (v *VM) execSetProperty(frame *CallFrame) error {
	instance, ok := value.AsInstance(v.peek(1))
	if !ok {
		return v.runtimeError(frame, "Only instances have fields.")
	}
	name := v.readString(frame)
	instance.Fields.Set(name, v.peek(0))

	val := v.pop()
	v.pop() // instance
	v.push(val)
	return nil
}

// bindMethod looks up name in class's method table and, on success,
// replaces the receiver on top of the stack with a BoundMethod. Per
// spec §9's open question, a successful bind never falls through to
// the "undefined property" error below it.
func (v *VM) bindMethod(frame *CallFrame, class *value.ObjClass, name *value.ObjString) error {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return v.runtimeError(frame, "Undefined property '%s'.", name.Chars)
	}
	method, _ := value.AsClosure(methodVal)
	bound := v.NewBoundMethod(v.peek(0), method)
	v.pop()
	v.push(value.Obj(bound))
	return nil
}

func (v *VM) defineMethod(frame *CallFrame, name *value.ObjString) {
	method, _ := value.AsClosure(v.peek(0))
	class, _ := value.AsClass(v.peek(1))
	class.Methods.Set(name, value.Obj(method))
	v.pop()
}
