// Package opcode defines smog's bytecode instruction set.
//
// smog is a stack machine: every opcode either pushes, pops, or
// rewrites slots of the VM's value stack. Operands are encoded inline
// in the chunk's byte stream immediately after the opcode byte, never
// in a separate operand table, this keeps decoding a single
// sequential pass with no backtracking.
//
// Operand encodings used below:
//   u8  - a single byte, 0-255
//   u16 - two bytes, big-endian
package opcode

// Op is a single bytecode instruction's operation. Opcodes are a
// single byte, keeping the instruction stream compact and the decode
// switch a simple byte dispatch.
type Op byte

const (
	// Constant pushes constants[idx] onto the stack.
	// Operand: u8 idx. Stack: +1.
	Constant Op = iota

	// Nil, True, False push their literal value. Operand: none. Stack: +1.
	Nil
	True
	False

	// Pop discards the top of the stack. Operand: none. Stack: -1.
	Pop

	// GetLocal pushes frame.slots[slot]. Operand: u8 slot. Stack: +1.
	GetLocal
	// SetLocal overwrites frame.slots[slot] with the top of the stack,
	// without popping it (assignment is itself an expression).
	// Operand: u8 slot. Stack: 0.
	SetLocal

	// GetGlobal pushes globals[name], where name is constants[idx].
	// Runtime error if the global is undefined. Operand: u8 name-const.
	// Stack: +1.
	GetGlobal
	// DefineGlobal binds globals[name] to the popped top of stack.
	// Operand: u8 name-const. Stack: -1.
	DefineGlobal
	// SetGlobal assigns globals[name] without popping; runtime error if
	// the global was never defined. Operand: u8 name-const. Stack: 0.
	SetGlobal

	// GetUpvalue pushes *closure.upvalues[slot].location. Operand: u8
	// slot. Stack: +1.
	GetUpvalue
	// SetUpvalue writes the top of stack through
	// closure.upvalues[slot].location, without popping. Operand: u8
	// slot. Stack: 0.
	SetUpvalue

	// GetProperty looks up constants[idx] as a field on the instance at
	// the top of stack, falling back to binding a method. Operand: u8
	// name-const. Stack: 0 (replaces receiver with the result).
	GetProperty
	// SetProperty pops a value and an instance, stores the value into
	// the instance's field table, and pushes the value back. Operand:
	// u8 name-const. Stack: -1.
	SetProperty
	// GetSuper pops a superclass reference, binds constants[idx] as a
	// method against the instance already on the stack, and replaces it
	// with the bound method. Operand: u8 name-const. Stack: -1.
	GetSuper

	// Equal, Greater, Less pop two values and push a bool. Stack: -1.
	Equal
	Greater
	Less

	// Add, Subtract, Multiply, Divide pop two values and push the
	// result. Add also concatenates two strings. Stack: -1.
	Add
	Subtract
	Multiply
	Divide

	// Not and Negate replace the top of stack with its logical or
	// arithmetic inverse, respectively. Stack: 0.
	Not
	Negate

	// Print pops and writes a value's textual rendering plus a newline
	// to stdout. Stack: -1.
	Print

	// Jump unconditionally advances ip by the u16 offset that follows.
	// Operand: u16 offset. Stack: 0.
	Jump
	// JumpIfFalse advances ip by the u16 offset if the top of stack is
	// falsey, without popping it. Operand: u16 offset. Stack: 0.
	JumpIfFalse
	// Loop subtracts the u16 offset that follows from ip, jumping
	// backward. Operand: u16 offset. Stack: 0.
	Loop

	// Call invokes the callee argc slots below the top of stack.
	// Operand: u8 argc. Stack: varies (collapses argc+1 slots to 1).
	Call
	// Invoke fuses GetProperty+Call: looks up constants[idx] as a
	// method on the instance argc slots down and calls it directly,
	// skipping the BoundMethod allocation. Operand: u8 name-const, u8
	// argc. Stack: varies.
	Invoke
	// SuperInvoke is Invoke, but method lookup starts in the popped
	// superclass rather than the receiver's own class. Operand: u8
	// name-const, u8 argc. Stack: varies.
	SuperInvoke

	// Closure reads a function constant, allocates a Closure, and then
	// reads 2*upvalueCount more bytes, pairs of (isLocal u8, index u8)
	//, to populate its captured upvalues. Operand: u8 func-const,
	// followed by the capture list. Stack: +1.
	Closure
	// CloseUpvalue closes every open upvalue at or above the current
	// stack top, then pops. Stack: -1.
	CloseUpvalue

	// Return pops the current frame's result, closes its upvalues, and
	// resumes the caller (or ends the program if this was the last
	// frame). Stack: varies.
	Return

	// Class pushes a new, empty class named constants[idx]. Operand: u8
	// name-const. Stack: +1.
	Class
	// Inherit copies the superclass's method table (peek(1)) into the
	// subclass on top of the stack, then pops the subclass. Stack: -1.
	Inherit
	// Method pops a Closure and installs it in the class below it on
	// the stack under the name constants[idx]. Operand: u8 name-const.
	// Stack: -1.
	Method
)

var names = [...]string{
	Constant:     "CONSTANT",
	Nil:          "NIL",
	True:         "TRUE",
	False:        "FALSE",
	Pop:          "POP",
	GetLocal:     "GET_LOCAL",
	SetLocal:     "SET_LOCAL",
	GetGlobal:    "GET_GLOBAL",
	DefineGlobal: "DEFINE_GLOBAL",
	SetGlobal:    "SET_GLOBAL",
	GetUpvalue:   "GET_UPVALUE",
	SetUpvalue:   "SET_UPVALUE",
	GetProperty:  "GET_PROPERTY",
	SetProperty:  "SET_PROPERTY",
	GetSuper:     "GET_SUPER",
	Equal:        "EQUAL",
	Greater:      "GREATER",
	Less:         "LESS",
	Add:          "ADD",
	Subtract:     "SUBTRACT",
	Multiply:     "MULTIPLY",
	Divide:       "DIVIDE",
	Not:          "NOT",
	Negate:       "NEGATE",
	Print:        "PRINT",
	Jump:         "JUMP",
	JumpIfFalse:  "JUMP_IF_FALSE",
	Loop:         "LOOP",
	Call:         "CALL",
	Invoke:       "INVOKE",
	SuperInvoke:  "SUPER_INVOKE",
	Closure:      "CLOSURE",
	CloseUpvalue: "CLOSE_UPVALUE",
	Return:       "RETURN",
	Class:        "CLASS",
	Inherit:      "INHERIT",
	Method:       "METHOD",
}

func (op Op) String() string {
	if int(op) < len(names) && names[op] != "" {
		return names[op]
	}
	return "UNKNOWN"
}
