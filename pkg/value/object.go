package value

import "fmt"

// ObjString is smog's interned string object. Every live string with
// equal content is the same *ObjString (see Table.FindString in
// table.go), so Value equality for strings is just pointer
// comparison. Hash is computed once, at construction, using FNV-1a.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

// NewRawString constructs an ObjString without interning or GC
// registration; callers (the allocator in pkg/vm) are responsible for
// both. Kept separate from interning so the allocator can look up the
// table before deciding whether a fresh object is even needed.
func NewRawString(chars string) *ObjString {
	s := &ObjString{Chars: chars, Hash: HashString(chars)}
	s.typ = ObjTypeString
	return s
}

func (s *ObjString) Print() string { return s.Chars }

// HashString computes the 32-bit FNV-1a hash of a string, per spec §3.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// Chunk is a compiled unit of bytecode: a byte stream, a parallel
// per-instruction source line table of the same length, and a pool of
// constant Values (capacity 256, indices are encoded as a single
// byte operand). It never shrinks once compiled; it is exclusively
// owned by the ObjFunction that wraps it.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// MaxConstants is the compile-time cap on a chunk's constant pool ,
// constant indices are encoded as a single byte operand.
const MaxConstants = 256

// Write appends one byte of bytecode, tagged with the source line that
// produced it.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends a Value to the constant pool and returns its
// index. Callers must check len(Constants) < MaxConstants first; the
// compiler turns an overflow into a compile error rather than calling
// this past the cap.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// ObjFunction is a compiled smog function: its arity, how many
// upvalues its closures must capture, its own Chunk, and an optional
// name (nil for the top-level script, per spec §3).
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString
}

func NewFunction() *ObjFunction {
	f := &ObjFunction{}
	f.typ = ObjTypeFunction
	return f
}

func (f *ObjFunction) Print() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is the signature every host-registered native function
// implements: receives the arguments slice (argv[0] is the first
// argument, not the receiver) and returns a single Value. Natives run
// synchronously to completion; they cannot suspend or re-enter the VM.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a host function pointer so it can live in globals
// and be called from CALL like any other callable.
type ObjNative struct {
	Header
	Name string
	Fn   NativeFn
}

func NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	n.typ = ObjTypeNative
	return n
}

func (n *ObjNative) Print() string { return fmt.Sprintf("<native fn %s>", n.Name) }

// ObjUpvalue is either open, indexing into a live slot of the VM's
// value stack, or closed, owning its captured Value in its embedded
// Closed field. See spec §3 invariant 4.
//
// Rather than hold a raw pointer into the stack (valid only because
// the stack never reallocates) this models the open case as a
// (stack, index) pair, per the alternative spec.md §9 design note
// sanctions for avoiding address comparisons: ordering open upvalues
// by "stack address" becomes ordering by StackIndex, a plain integer
// comparison.
type ObjUpvalue struct {
	Header
	stack  []Value
	index  int
	open   bool
	Closed Value
	// NextOpen links open upvalues into vm.openUpvalues, a list ordered
	// by strictly decreasing StackIndex (see spec §4.4 captureUpvalue).
	NextOpen *ObjUpvalue
}

// NewUpvalue creates an open upvalue over stack[index]. stack must be
// the VM's backing value-stack slice; it is never reallocated for the
// life of the VM (spec §5, §9), so the index remains valid until the
// upvalue is closed.
func NewUpvalue(stack []Value, index int) *ObjUpvalue {
	u := &ObjUpvalue{stack: stack, index: index, open: true}
	u.typ = ObjTypeUpvalue
	return u
}

func (u *ObjUpvalue) Print() string { return "<upvalue>" }

// IsOpen reports whether this upvalue still points into the stack
// rather than its own embedded slot.
func (u *ObjUpvalue) IsOpen() bool { return u.open }

// StackIndex returns the stack slot this open upvalue refers to. Only
// meaningful while IsOpen is true.
func (u *ObjUpvalue) StackIndex() int { return u.index }

// Get reads the upvalue's current value, whether open or closed.
func (u *ObjUpvalue) Get() Value {
	if u.open {
		return u.stack[u.index]
	}
	return u.Closed
}

// Set writes through the upvalue, whether open or closed.
func (u *ObjUpvalue) Set(v Value) {
	if u.open {
		u.stack[u.index] = v
	} else {
		u.Closed = v
	}
}

// Close copies the current stack value into the embedded Closed slot
// and detaches from the stack, implementing spec §4.4 closeUpvalues.
func (u *ObjUpvalue) Close() {
	u.Closed = u.stack[u.index]
	u.open = false
	u.stack = nil
}

// ObjClosure pairs a Function with the upvalues its nested functions
// capture. CLOSURE is the only opcode that allocates one.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func NewClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	c.typ = ObjTypeClosure
	return c
}

func (c *ObjClosure) Print() string { return c.Function.Print() }

// ObjClass is a class value: its name and its own method table,
// mapping a name to the Closure implementing it. INHERIT copies a
// superclass's table into a subclass before the subclass's own
// methods are installed, so later METHOD opcodes naturally realize
// overrides.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods *Table
}

func NewClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: NewTable()}
	c.typ = ObjTypeClass
	return c
}

func (c *ObjClass) Print() string { return c.Name.Chars }

// ObjInstance is an instance of a Class: a reference to its class and
// its own field table, mapping a name to a Value. Fields shadow
// methods of the same name (spec §4.4 INVOKE).
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields *Table
}

func NewInstance(class *ObjClass) *ObjInstance {
	i := &ObjInstance{Class: class, Fields: NewTable()}
	i.typ = ObjTypeInstance
	return i
}

func (i *ObjInstance) Print() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }

// ObjBoundMethod detaches a method from the dot-access that found it:
// a receiver Value plus the Closure to invoke with that receiver
// installed in call-frame slot 0.
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	b.typ = ObjTypeBoundMethod
	return b
}

func (b *ObjBoundMethod) Print() string { return b.Method.Print() }
