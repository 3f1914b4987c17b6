package value

// The As* helpers type-assert an Object value to a concrete variant,
// returning ok=false rather than panicking when the Value holds
// something else. They exist so the VM and compiler read as ordinary
// type switches instead of repeating `v.AsObject().(*ObjString)`.

func AsString(v Value) (*ObjString, bool) {
	if !v.IsObject() {
		return nil, false
	}
	s, ok := v.AsObject().(*ObjString)
	return s, ok
}

func AsFunction(v Value) (*ObjFunction, bool) {
	if !v.IsObject() {
		return nil, false
	}
	f, ok := v.AsObject().(*ObjFunction)
	return f, ok
}

func AsClosure(v Value) (*ObjClosure, bool) {
	if !v.IsObject() {
		return nil, false
	}
	c, ok := v.AsObject().(*ObjClosure)
	return c, ok
}

func AsClass(v Value) (*ObjClass, bool) {
	if !v.IsObject() {
		return nil, false
	}
	c, ok := v.AsObject().(*ObjClass)
	return c, ok
}

func AsInstance(v Value) (*ObjInstance, bool) {
	if !v.IsObject() {
		return nil, false
	}
	i, ok := v.AsObject().(*ObjInstance)
	return i, ok
}

func AsNative(v Value) (*ObjNative, bool) {
	if !v.IsObject() {
		return nil, false
	}
	n, ok := v.AsObject().(*ObjNative)
	return n, ok
}

func AsBoundMethod(v Value) (*ObjBoundMethod, bool) {
	if !v.IsObject() {
		return nil, false
	}
	b, ok := v.AsObject().(*ObjBoundMethod)
	return b, ok
}

func StringVal(s *ObjString) Value { return Obj(s) }
