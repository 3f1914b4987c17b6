// Package compiler implements smog's single-pass compiler: a Pratt
// parser that emits bytecode directly into a value.Chunk as it parses,
// with no intermediate AST (spec.md §4.3).
//
// Because there's no AST to walk twice, scope, locals, and upvalues
// are all tracked as the parser descends and unwinds: a Compiler
// value mirrors one function body's compile-time state, chained to
// its enclosing function through Compiler.enclosing the same way
// nested call frames chain at runtime.
package compiler

import (
	"fmt"

	"github.com/kristofer/smog/pkg/lexer"
	"github.com/kristofer/smog/pkg/opcode"
	"github.com/kristofer/smog/pkg/value"
	"github.com/kristofer/smog/pkg/vm"
)

// FunctionType distinguishes the kind of function body currently being
// compiled, since script-level code, methods, and initializers each
// need slightly different codegen (e.g. an initializer's implicit
// `return this`).
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeScript
	TypeMethod
	TypeInitializer
)

// maxLocals, maxUpvalues, and maxArgs are single-byte operand limits:
// a local or upvalue slot index and an argument count are each
// encoded as one byte in the bytecode stream.
const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArgs     = 255
)

// Local tracks one declared local variable's name, the scope depth it
// was declared at, and whether any nested function captures it as an
// upvalue (which forces CLOSE_UPVALUE instead of a bare POP when the
// scope that owns it ends).
type Local struct {
	name       lexer.Token
	depth      int // -1 means "declared but not yet defined"
	isCaptured bool
}

// upvalueRef is a compile-time record of one upvalue a function
// captures: whether it closes over a local slot of the immediately
// enclosing function, or re-exports one of that function's own
// upvalues.
type upvalueRef struct {
	index   byte
	isLocal bool
}

// Compiler holds the compile-time state for one function body being
// compiled: its locals, its upvalues, and a link to the Compiler for
// the lexically enclosing function. The chain mirrors the runtime
// CallFrame chain, one level per nested `fun`.
type Compiler struct {
	enclosing *Compiler

	function *value.ObjFunction
	fnType   FunctionType

	locals     []Local
	upvalues   []upvalueRef
	scopeDepth int
}

// classCompiler tracks compile-time state for a class body being
// compiled: whether it has a superclass (so `super` resolves), chained
// to the enclosing class the way Compiler chains to enclosing
// functions, nested class declarations are legal in smog.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// parser is the single-pass parser's mutable state: the lexer it pulls
// tokens from, the current and previous token, error-recovery flags,
// and the function/class compiler chains being built up as it
// descends into nested declarations.
type parser struct {
	lex *lexer.Lexer
	vm  *vm.VM

	current  lexer.Token
	previous lexer.Token

	hadError   bool
	panicMode  bool
	errors     []Diagnostic

	compiler *Compiler
	class    *classCompiler
}

// Diagnostic is one compile error: its source line, the offending
// lexeme (empty for an "at end" error), and the message. CompileError
// aggregates every Diagnostic a compile produced, smog, like clox,
// doesn't stop at the first syntax error; panic-mode recovery lets it
// report several from a single Compile call.
type Diagnostic struct {
	Line    int
	Where   string
	Message string
}

func (d Diagnostic) String() string {
	if d.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", d.Line, d.Message)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", d.Line, d.Where, d.Message)
}

// CompileError is returned by Compile when one or more syntax errors
// were found; Error() renders every diagnostic on its own line in the
// exact "[line N] Error ...: message" format spec §7 requires on
// stderr.
type CompileError struct{ Diagnostics []Diagnostic }

func (e *CompileError) Error() string {
	s := ""
	for i, d := range e.Diagnostics {
		if i > 0 {
			s += "\n"
		}
		s += d.String()
	}
	return s
}

// Compile parses source in full and returns the top-level script
// function it compiles to, or a *CompileError if parsing failed. The
// returned function's Chunk ends with an implicit RETURN of nil, the
// same way every function body does.
func Compile(v *vm.VM, source string) (*value.ObjFunction, error) {
	p := &parser{lex: lexer.New(source), vm: v}

	fn := v.NewFunction()
	v.PushCompilerRoot(fn)
	defer v.PopCompilerRoot()

	p.compiler = &Compiler{function: fn, fnType: TypeScript}
	p.compiler.locals = append(p.compiler.locals, Local{name: lexer.Token{Lexeme: ""}, depth: 0})

	p.advance()
	for !p.match(lexer.TokenEOF) {
		p.declaration()
	}
	p.consume(lexer.TokenEOF, "Expect end of expression.")

	fn = p.endCompiler()

	if p.hadError {
		return nil, &CompileError{Diagnostics: p.errors}
	}
	return fn, nil
}

func (p *parser) advance() {
	p.previous = p.current
	for {
		p.current = p.lex.NextToken()
		if p.current.Type != lexer.TokenError {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) consume(t lexer.TokenType, message string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(message)
}

func (p *parser) check(t lexer.TokenType) bool { return p.current.Type == t }

func (p *parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) errorAtCurrent(message string) { p.errorAt(p.current, message) }
func (p *parser) error(message string)          { p.errorAt(p.previous, message) }

func (p *parser) errorAt(tok lexer.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	if tok.Type == lexer.TokenEOF {
		p.errors = append(p.errors, Diagnostic{Line: tok.Line, Where: "", Message: "at end: " + message})
		p.hadError = true
		return
	}

	p.errors = append(p.errors, Diagnostic{Line: tok.Line, Where: tok.Lexeme, Message: message})
	p.hadError = true
}

// currentChunk returns the chunk currently being emitted into: the
// one belonging to the function at the top of the compiler chain.
func (p *parser) currentChunk() *value.Chunk { return &p.compiler.function.Chunk }

func (p *parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.previous.Line)
}

func (p *parser) emitBytes(a, b byte) {
	p.emitByte(a)
	p.emitByte(b)
}

func (p *parser) emitLoop(loopStart int) {
	p.emitByte(byte(opcode.Loop))
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("Loop body too large.")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset & 0xff))
}

func (p *parser) emitJump(instruction byte) int {
	p.emitByte(instruction)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		p.error("Too much code to jump over.")
	}
	p.currentChunk().Code[offset] = byte(jump >> 8)
	p.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

func (p *parser) emitReturn() {
	if p.compiler.fnType == TypeInitializer {
		p.emitBytes(byte(opcode.GetLocal), 0)
	} else {
		p.emitByte(byte(opcode.Nil))
	}
	p.emitByte(byte(opcode.Return))
}

func (p *parser) makeConstant(v value.Value) byte {
	if len(p.currentChunk().Constants) >= value.MaxConstants {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(p.currentChunk().AddConstant(v))
}

func (p *parser) emitConstant(v value.Value) {
	p.emitBytes(byte(opcode.Constant), p.makeConstant(v))
}

// endCompiler finishes the function currently being compiled,
// restoring the enclosing Compiler (if any) as the active one. It
// returns the finished function so the caller (Compile, or the
// `fun`/method codegen in statements.go) can wrap it in a CLOSURE
// constant.
func (p *parser) endCompiler() *value.ObjFunction {
	p.emitReturn()
	fn := p.compiler.function
	p.compiler = p.compiler.enclosing
	return fn
}

func (p *parser) beginScope() { p.compiler.scopeDepth++ }

func (p *parser) endScope() {
	p.compiler.scopeDepth--
	for len(p.compiler.locals) > 0 && p.compiler.locals[len(p.compiler.locals)-1].depth > p.compiler.scopeDepth {
		last := p.compiler.locals[len(p.compiler.locals)-1]
		if last.isCaptured {
			p.emitByte(byte(opcode.CloseUpvalue))
		} else {
			p.emitByte(byte(opcode.Pop))
		}
		p.compiler.locals = p.compiler.locals[:len(p.compiler.locals)-1]
	}
}
