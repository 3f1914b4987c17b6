package vm

import (
	"github.com/dustin/go-humanize"
	"github.com/kristofer/smog/pkg/value"
	"go.uber.org/zap"
)

// collectGarbage runs one full tri-color mark-and-sweep pass: mark
// every root, trace outgoing references until the gray stack is
// empty, prune the (weak) intern table of strings that turned out to
// be unreachable, sweep the rest of the live-object list, and grow
// the next collection's threshold (spec §4.5).
func (v *VM) collectGarbage() {
	before := v.bytesAllocated

	v.markRoots()
	v.traceReferences()
	v.strings.RemoveWhite()
	freed := v.sweep()

	v.nextGC = v.bytesAllocated * 2
	if v.nextGC < initialNextGC {
		v.nextGC = initialNextGC
	}

	v.logger.Debug("gc",
		zap.String("before", humanize.Bytes(uint64(before))),
		zap.String("after", humanize.Bytes(uint64(v.bytesAllocated))),
		zap.String("freed", humanize.Bytes(uint64(freed))),
		zap.String("nextGC", humanize.Bytes(uint64(v.nextGC))),
	)
}

// markRoots marks every value the running program can reach without
// going through another heap object: the value stack, every active
// frame's closure, the open-upvalue list, the globals table, the
// compiler-in-progress function chain, and the interned "init" string
// (spec §4.5 markRoots).
func (v *VM) markRoots() {
	for i := 0; i < v.stackTop; i++ {
		v.markValue(v.stack[i])
	}
	for i := 0; i < v.frameCount; i++ {
		v.markObject(v.frames[i].Closure)
	}
	for u := v.openUpvalues; u != nil; u = u.NextOpen {
		v.markObject(u)
	}
	v.globals.Mark(v.markObject)
	for _, fn := range v.compilerRoots {
		v.markObject(fn)
	}
	v.markObject(v.initString)
}

func (v *VM) markValue(val value.Value) {
	if val.IsObject() {
		v.markObject(val.AsObject())
	}
}

func (v *VM) markObject(o value.Object) {
	if o == nil {
		return
	}
	h := o.Header()
	if h.Marked {
		return
	}
	h.Marked = true
	v.grayStack = append(v.grayStack, o)
}

// traceReferences repeatedly blackens the next gray object until none
// remain, which is the fixed point of "every reachable object is
// marked."
func (v *VM) traceReferences() {
	for len(v.grayStack) > 0 {
		n := len(v.grayStack) - 1
		o := v.grayStack[n]
		v.grayStack = v.grayStack[:n]
		v.blacken(o)
	}
}

// blacken marks an object's own outgoing references, per the
// per-type reference table in spec §4.5.
func (v *VM) blacken(o value.Object) {
	switch obj := o.(type) {
	case *value.ObjString, *value.ObjNative:
		// no outgoing references
	case *value.ObjUpvalue:
		v.markValue(obj.Get())
	case *value.ObjFunction:
		v.markObject(obj.Name)
		for _, c := range obj.Chunk.Constants {
			v.markValue(c)
		}
	case *value.ObjClosure:
		v.markObject(obj.Function)
		for _, u := range obj.Upvalues {
			v.markObject(u)
		}
	case *value.ObjClass:
		v.markObject(obj.Name)
		obj.Methods.Mark(v.markObject)
	case *value.ObjInstance:
		v.markObject(obj.Class)
		obj.Fields.Mark(v.markObject)
	case *value.ObjBoundMethod:
		v.markValue(obj.Receiver)
		v.markObject(obj.Method)
	}
}

// sweep walks the intrusive live-object list, unmarking and keeping
// every object that was reached this cycle and unlinking (and
// un-accounting) everything else. It returns the number of bytes
// freed.
func (v *VM) sweep() int {
	freed := 0
	var prev value.Object
	obj := v.objects

	for obj != nil {
		h := obj.Header()
		if h.Marked {
			h.Marked = false
			prev = obj
			obj = h.Next
			continue
		}

		unreached := obj
		obj = h.Next
		if prev == nil {
			v.objects = obj
		} else {
			prev.Header().Next = obj
		}

		freed += v.sizeOf(unreached)
	}

	v.bytesAllocated -= freed
	return freed
}

func (v *VM) sizeOf(o value.Object) int {
	switch obj := o.(type) {
	case *value.ObjString:
		return sizeOfString(obj)
	case *value.ObjFunction:
		return sizeOfFunction()
	case *value.ObjClosure:
		return sizeOfClosure(obj)
	case *value.ObjClass:
		return sizeOfClass()
	case *value.ObjInstance:
		return sizeOfInstance()
	case *value.ObjBoundMethod:
		return sizeOfBoundMethod()
	case *value.ObjUpvalue:
		return sizeOfUpvalue()
	case *value.ObjNative:
		return sizeOfNative()
	default:
		return baseObjectSize
	}
}
