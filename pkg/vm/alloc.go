package vm

import "github.com/kristofer/smog/pkg/value"

// Every heap object the VM or compiler creates passes through one of
// these constructors, which link it onto the live-object list and
// account its size against bytesAllocated before possibly triggering
// a collection (see gc.go). This mirrors clox's allocateObject, which
// routes every object type through reallocate for the same reason.

func (v *VM) allocate(o value.Object, size int) {
	v.bytesAllocated += size
	if v.bytesAllocated > v.nextGC || v.stressGC {
		v.collectGarbage()
	}
	o.Header().Next = v.objects
	v.objects = o
}

// InternString returns the canonical *ObjString for chars, allocating
// and registering a new one only if this content hasn't been seen
// before. Go strings are themselves immutable, so unlike clox there's
// no separate copy/take distinction: concatenation in execAdd builds
// the combined content up front and hands it straight to InternString.
func (v *VM) InternString(chars string) *value.ObjString {
	hash := value.HashString(chars)
	if s := v.strings.FindString(chars, hash); s != nil {
		return s
	}

	s := value.NewRawString(chars)
	// Keep the new string reachable across the allocation's potential
	// GC pass: it's not linked into any root yet, so it must sit on the
	// value stack until the intern table insert below makes the table
	// itself (a non-root, but findEntry below that doesn't trigger GC)
	// its only reference.
	v.push(value.Obj(s))
	v.allocate(s, sizeOfString(s))
	v.strings.Set(s, value.Nil)
	v.pop()
	return s
}

func (v *VM) NewFunction() *value.ObjFunction {
	f := value.NewFunction()
	v.allocate(f, sizeOfFunction())
	return f
}

func (v *VM) NewClosure(fn *value.ObjFunction) *value.ObjClosure {
	c := value.NewClosure(fn)
	v.allocate(c, sizeOfClosure(c))
	return c
}

func (v *VM) NewClass(name *value.ObjString) *value.ObjClass {
	c := value.NewClass(name)
	v.allocate(c, sizeOfClass())
	return c
}

func (v *VM) NewInstance(class *value.ObjClass) *value.ObjInstance {
	i := value.NewInstance(class)
	v.allocate(i, sizeOfInstance())
	return i
}

func (v *VM) NewBoundMethod(receiver value.Value, method *value.ObjClosure) *value.ObjBoundMethod {
	b := value.NewBoundMethod(receiver, method)
	v.allocate(b, sizeOfBoundMethod())
	return b
}

// NewUpvalue allocates an open upvalue over the VM's own stack slot
// index. The slice handed to value.NewUpvalue aliases the VM's fixed
// stack array, which never reallocates (see StackMax).
func (v *VM) NewUpvalue(index int) *value.ObjUpvalue {
	u := value.NewUpvalue(v.stack[:], index)
	v.allocate(u, sizeOfUpvalue())
	return u
}

func (v *VM) NewNative(name string, fn value.NativeFn) *value.ObjNative {
	n := value.NewNative(name, fn)
	v.allocate(n, sizeOfNative())
	return n
}

// PushCompilerRoot registers a function object the compiler is still
// emitting into as a GC root (spec §4.5 mark-roots item 5): without
// it, interning a string literal partway through compiling a function
// body could collect that function before it's ever stored anywhere.
func (v *VM) PushCompilerRoot(fn *value.ObjFunction) {
	v.compilerRoots = append(v.compilerRoots, fn)
}

// PopCompilerRoot unregisters the most recently pushed compiler root,
// called once the compiler finishes (or abandons) a function body.
func (v *VM) PopCompilerRoot() {
	v.compilerRoots = v.compilerRoots[:len(v.compilerRoots)-1]
}

// BytesAllocated reports current tracked heap usage, exposed for GC
// telemetry tests and the gcHeapSize() native.
func (v *VM) BytesAllocated() int { return v.bytesAllocated }

// Rough, fixed per-type size estimates used only for the GC's
// heap-growth heuristic and telemetry; smog doesn't manage its own
// memory arena the way clox does; these exist so the heuristic and
// the spec's "monotonic nextGC growth" testable property have
// something meaningful to operate on.
const (
	baseObjectSize  = 16
	pointerSize     = 8
	float64Size     = 8
)

func sizeOfString(s *value.ObjString) int { return baseObjectSize + len(s.Chars) }
func sizeOfFunction() int                 { return baseObjectSize + 3*pointerSize }
func sizeOfClosure(c *value.ObjClosure) int {
	return baseObjectSize + pointerSize + len(c.Upvalues)*pointerSize
}
func sizeOfClass() int        { return baseObjectSize + 2*pointerSize }
func sizeOfInstance() int     { return baseObjectSize + 2*pointerSize }
func sizeOfBoundMethod() int  { return baseObjectSize + pointerSize + float64Size }
func sizeOfUpvalue() int      { return baseObjectSize + pointerSize + float64Size }
func sizeOfNative() int       { return baseObjectSize + 2*pointerSize }
