package vm

import "github.com/kristofer/smog/pkg/value"

// callValue dispatches CALL against whatever is on the stack at
// peek(argCount): a Closure pushes a new frame, a Native runs
// synchronously and leaves its result on the stack, a Class produces
// a fresh Instance (invoking "init" if the class defines one), and a
// BoundMethod calls its underlying Closure with the receiver patched
// into slot 0. Anything else is a runtime error (spec §4.4 callValue).
func (v *VM) callValue(callee value.Value, argCount int) error {
	if callee.IsObject() {
		switch callee.AsObject().Type() {
		case value.ObjTypeClosure:
			closure, _ := value.AsClosure(callee)
			return v.callClosure(closure, argCount)

		case value.ObjTypeNative:
			native, _ := value.AsNative(callee)
			args := v.stack[v.stackTop-argCount : v.stackTop]
			result, err := native.Fn(args)
			if err != nil {
				return v.runtimeError(v.currentFrame(), "%s", err.Error())
			}
			v.stackTop -= argCount + 1
			v.push(result)
			return nil

		case value.ObjTypeClass:
			class, _ := value.AsClass(callee)
			instance := v.NewInstance(class)
			v.stack[v.stackTop-argCount-1] = value.Obj(instance)
			if initializer, ok := class.Methods.Get(v.initString); ok {
				initClosure, _ := value.AsClosure(initializer)
				return v.callClosure(initClosure, argCount)
			}
			if argCount != 0 {
				return v.runtimeError(v.currentFrame(), "Expected 0 arguments but got %d.", argCount)
			}
			return nil

		case value.ObjTypeBoundMethod:
			bound, _ := value.AsBoundMethod(callee)
			v.stack[v.stackTop-argCount-1] = bound.Receiver
			return v.callClosure(bound.Method, argCount)
		}
	}
	return v.runtimeError(v.currentFrame(), "Can only call functions and classes.")
}

// callClosure pushes a new call frame for closure, validating arity
// and the call-depth limit (spec §3 invariant 5).
func (v *VM) callClosure(closure *value.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return v.runtimeError(v.currentFrame(), "Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if v.frameCount == FramesMax {
		return v.runtimeError(v.currentFrame(), "Stack overflow.")
	}

	frame := &v.frames[v.frameCount]
	v.frameCount++
	frame.Closure = closure
	frame.IP = 0
	frame.Slots = v.stackTop - argCount - 1
	return nil
}

// invoke fuses property lookup and call for the common `receiver.name(args)`
// shape (opcode.Invoke), skipping the BoundMethod allocation GET_PROPERTY
// plus CALL would otherwise require. Fields still shadow methods: a
// field holding a callable is invoked as a plain call.
func (v *VM) invoke(name *value.ObjString, argCount int) error {
	receiver := v.peek(argCount)
	instance, ok := value.AsInstance(receiver)
	if !ok {
		return v.runtimeError(v.currentFrame(), "Only instances have methods.")
	}

	if field, ok := instance.Fields.Get(name); ok {
		v.stack[v.stackTop-argCount-1] = field
		return v.callValue(field, argCount)
	}

	return v.invokeFromClass(instance.Class, name, argCount)
}

func (v *VM) invokeFromClass(class *value.ObjClass, name *value.ObjString, argCount int) error {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return v.runtimeError(v.currentFrame(), "Undefined property '%s'.", name.Chars)
	}
	method, _ := value.AsClosure(methodVal)
	return v.callClosure(method, argCount)
}

// captureUpvalue returns the open upvalue for stack slot index,
// reusing one already open over that slot if one exists. openUpvalues
// is kept sorted by strictly decreasing StackIndex so the search can
// stop as soon as it passes index (spec §4.4 captureUpvalue).
func (v *VM) captureUpvalue(index int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	upvalue := v.openUpvalues
	for upvalue != nil && upvalue.StackIndex() > index {
		prev = upvalue
		upvalue = upvalue.NextOpen
	}
	if upvalue != nil && upvalue.StackIndex() == index {
		return upvalue
	}

	created := v.NewUpvalue(index)
	created.NextOpen = upvalue
	if prev == nil {
		v.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above stack slot
// last, detaching it from v.openUpvalues first.
func (v *VM) closeUpvalues(last int) {
	for v.openUpvalues != nil && v.openUpvalues.StackIndex() >= last {
		upvalue := v.openUpvalues
		upvalue.Close()
		v.openUpvalues = upvalue.NextOpen
	}
}
