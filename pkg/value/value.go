// Package value defines smog's runtime value representation: the
// tagged-union Value type and the heap object model every Object
// variant (String, Function, Closure, Upvalue, Class, Instance,
// BoundMethod, Native) builds on.
//
// Equality follows the spec's rule exactly: same variant and same
// payload; for Object values, strings compare by interned identity
// (equivalent to content because every string is interned, see
// Table.FindString) and every other object type compares by identity.
package value

import "fmt"

// Kind tags which variant a Value holds.
type Kind byte

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObject
)

// Object is implemented by every heap-allocated variant: String,
// Function, Native, Closure, Upvalue, Class, Instance, BoundMethod.
// Each variant embeds Header, which carries the GC mark bit and the
// intrusive-list Next pointer every live object is threaded onto.
type Object interface {
	// Header returns the object's GC header for marking and sweeping.
	Header() *Header
	// Type reports which concrete variant this object is.
	Type() ObjType
	// Print renders the value the way the `print` statement does.
	Print() string
}

// ObjType tags which heap object variant an Object is.
type ObjType byte

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeClosure
	ObjTypeUpvalue
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "string"
	case ObjTypeFunction:
		return "function"
	case ObjTypeNative:
		return "native"
	case ObjTypeClosure:
		return "closure"
	case ObjTypeUpvalue:
		return "upvalue"
	case ObjTypeClass:
		return "class"
	case ObjTypeInstance:
		return "instance"
	case ObjTypeBoundMethod:
		return "bound method"
	default:
		return "unknown"
	}
}

// Header is the object header every heap object embeds: a type tag,
// the tri-color mark bit, and the intrusive singly-linked list pointer
// used by sweep to walk every live object.
type Header struct {
	typ    ObjType
	Marked bool
	Next   Object
}

func (h *Header) Header() *Header { return h }
func (h *Header) Type() ObjType   { return h.typ }

// Value is smog's tagged union: nil, a bool, an IEEE-754 double, or a
// reference to a heap Object. It is deliberately small and copied by
// value everywhere (on the VM stack, in locals, as call arguments) the
// way the spec requires.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	object Object
}

// Nil is the singular nil value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean into a Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64 into a Value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Obj wraps a heap Object reference into a Value.
func Obj(o Object) Value { return Value{kind: KindObject, object: o} }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObject() bool { return v.kind == KindObject }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObject() Object  { return v.object }

// IsFalsey implements smog's truthiness rule: nil and false are
// falsey, everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNil() || (v.IsBool() && !v.AsBool())
}

// Equal implements Value equality per the spec: variant and payload
// must match; object equality is identity (string identity is
// content-equality in disguise, since strings are interned).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindObject:
		return a.object == b.object
	default:
		return false
	}
}

// String renders a Value the way `print` does: nil, true/false,
// numbers without a forced trailing ".0", raw string content (no
// quotes), and each object kind's own Print rendering.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindObject:
		return v.object.Print()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
