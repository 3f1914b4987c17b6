package compiler

import (
	"github.com/kristofer/smog/pkg/lexer"
	"github.com/kristofer/smog/pkg/opcode"
	"github.com/kristofer/smog/pkg/value"
)

func identifiersEqual(a, b lexer.Token) bool { return a.Lexeme == b.Lexeme }

// addLocal declares name as a new local in the current scope, marked
// uninitialized (depth -1) until defineVariable runs, this is what
// makes `var a = a;` a compile error (spec §9's "declare before
// initializer is evaluated" rule): resolveLocal below refuses to
// resolve a local still at depth -1.
func (p *parser) addLocal(name lexer.Token) {
	if len(p.compiler.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	p.compiler.locals = append(p.compiler.locals, Local{name: name, depth: -1})
}

// declareVariable registers a local for the variable currently being
// parsed; globals are resolved by name at runtime and never reach
// this path. Declaring the same name twice in the same scope is a
// compile error (a restored original_source diagnostic, the
// distilled grammar was silent on it).
func (p *parser) declareVariable() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	name := p.previous
	for i := len(p.compiler.locals) - 1; i >= 0; i-- {
		local := p.compiler.locals[i]
		if local.depth != -1 && local.depth < p.compiler.scopeDepth {
			break
		}
		if identifiersEqual(name, local.name) {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

// parseVariable consumes an identifier and, for a global, interns and
// constant-pools its name; for a local it just declares it and
// returns 0 (unused by defineVariable in the local case).
func (p *parser) parseVariable(message string) byte {
	p.consume(lexer.TokenIdentifier, message)

	p.declareVariable()
	if p.compiler.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous)
}

func (p *parser) identifierConstant(name lexer.Token) byte {
	return p.makeConstant(value.Obj(p.vm.InternString(name.Lexeme)))
}

func (p *parser) markInitialized() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	p.compiler.locals[len(p.compiler.locals)-1].depth = p.compiler.scopeDepth
}

// defineVariable emits DEFINE_GLOBAL for a global, or simply marks a
// local initialized: locals live on the value stack already, exactly
// where the initializer expression left its result.
func (p *parser) defineVariable(global byte) {
	if p.compiler.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(byte(opcode.DefineGlobal), global)
}

// resolveLocal searches c's locals innermost-first for name, returning
// its slot index or -1 if not found. A local found at depth -1 (still
// being initialized, `var a = a;`) is a compile error rather than a
// silent outer-scope fallback.
func resolveLocal(p *parser, c *Compiler, name lexer.Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if identifiersEqual(name, local.name) {
			if local.depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name against the enclosing function chain,
// capturing a local or an outer upvalue as needed and memoizing the
// result so a function capturing the same outer variable twice gets
// one upvalue slot, not two (spec §4.3 resolveUpvalue).
func resolveUpvalue(p *parser, c *Compiler, name lexer.Token) int {
	if c.enclosing == nil {
		return -1
	}

	if local := resolveLocal(p, c.enclosing, name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return addUpvalue(p, c, byte(local), true)
	}

	if upvalue := resolveUpvalue(p, c.enclosing, name); upvalue != -1 {
		return addUpvalue(p, c, byte(upvalue), false)
	}

	return -1
}

func addUpvalue(p *parser, c *Compiler, index byte, isLocal bool) int {
	for i, up := range c.upvalues {
		if up.index == index && up.isLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		p.error("Too many closure variables in function.")
		return 0
	}
	c.upvalues = append(c.upvalues, upvalueRef{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

// namedVariable compiles a bare identifier as either a get or,
// immediately followed by `=` in an assignable context, a set ,
// against whichever scope resolveLocal/resolveUpvalue find it in,
// falling back to a global lookup by name.
func (p *parser) namedVariable(name lexer.Token, canAssign bool) {
	var getOp, setOp opcode.Op
	arg := resolveLocal(p, p.compiler, name)
	if arg != -1 {
		getOp, setOp = opcode.GetLocal, opcode.SetLocal
	} else if arg = resolveUpvalue(p, p.compiler, name); arg != -1 {
		getOp, setOp = opcode.GetUpvalue, opcode.SetUpvalue
	} else {
		arg = int(p.identifierConstant(name))
		getOp, setOp = opcode.GetGlobal, opcode.SetGlobal
	}

	if canAssign && p.match(lexer.TokenEqual) {
		p.expression()
		p.emitBytes(byte(setOp), byte(arg))
	} else {
		p.emitBytes(byte(getOp), byte(arg))
	}
}
