package compiler

import (
	"github.com/kristofer/smog/pkg/lexer"
	"github.com/kristofer/smog/pkg/opcode"
	"github.com/kristofer/smog/pkg/value"
)

func (p *parser) declaration() {
	switch {
	case p.match(lexer.TokenClass):
		p.classDeclaration()
	case p.match(lexer.TokenFun):
		p.funDeclaration()
	case p.match(lexer.TokenVar):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

// synchronize discards tokens after a syntax error until it reaches a
// statement boundary, so one mistake reports one diagnostic instead of
// a cascade of follow-on errors from the same bad parse.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Type != lexer.TokenEOF {
		if p.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch p.current.Type {
		case lexer.TokenClass, lexer.TokenFun, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenPrint, lexer.TokenReturn:
			return
		}
		p.advance()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(lexer.TokenPrint):
		p.printStatement()
	case p.match(lexer.TokenIf):
		p.ifStatement()
	case p.match(lexer.TokenReturn):
		p.returnStatement()
	case p.match(lexer.TokenWhile):
		p.whileStatement()
	case p.match(lexer.TokenFor):
		p.forStatement()
	case p.match(lexer.TokenLeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after value.")
	p.emitByte(byte(opcode.Print))
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after expression.")
	p.emitByte(byte(opcode.Pop))
}

func (p *parser) block() {
	for !p.check(lexer.TokenRightBrace) && !p.check(lexer.TokenEOF) {
		p.declaration()
	}
	p.consume(lexer.TokenRightBrace, "Expect '}' after block.")
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(lexer.TokenEqual) {
		p.expression()
	} else {
		p.emitByte(byte(opcode.Nil))
	}
	p.consume(lexer.TokenSemicolon, "Expect ';' after variable declaration.")

	p.defineVariable(global)
}

func (p *parser) ifStatement() {
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(byte(opcode.JumpIfFalse))
	p.emitByte(byte(opcode.Pop))
	p.statement()

	elseJump := p.emitJump(byte(opcode.Jump))
	p.patchJump(thenJump)
	p.emitByte(byte(opcode.Pop))

	if p.match(lexer.TokenElse) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(byte(opcode.JumpIfFalse))
	p.emitByte(byte(opcode.Pop))
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitByte(byte(opcode.Pop))
}

// forStatement desugars to a while loop built from plain jump/loop
// opcodes (spec §4.3: "for" lowers to existing control-flow
// primitives, no dedicated loop opcode).
func (p *parser) forStatement() {
	p.beginScope()
	p.consume(lexer.TokenLeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(lexer.TokenSemicolon):
		// no initializer
	case p.match(lexer.TokenVar):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(lexer.TokenSemicolon) {
		p.expression()
		p.consume(lexer.TokenSemicolon, "Expect ';' after loop condition.")
		exitJump = p.emitJump(byte(opcode.JumpIfFalse))
		p.emitByte(byte(opcode.Pop))
	}

	if !p.match(lexer.TokenRightParen) {
		bodyJump := p.emitJump(byte(opcode.Jump))

		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitByte(byte(opcode.Pop))
		p.consume(lexer.TokenRightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitByte(byte(opcode.Pop))
	}

	p.endScope()
}

func (p *parser) returnStatement() {
	if p.compiler.fnType == TypeScript {
		p.error("Can't return from top-level code.")
	}

	if p.match(lexer.TokenSemicolon) {
		p.emitReturn()
		return
	}

	if p.compiler.fnType == TypeInitializer {
		p.error("Can't return a value from an initializer.")
	}

	p.expression()
	p.consume(lexer.TokenSemicolon, "Expect ';' after return value.")
	p.emitByte(byte(opcode.Return))
}

func (p *parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(TypeFunction)
	p.defineVariable(global)
}

// function compiles one function body (a `fun` declaration or a
// method) into its own Chunk, under a fresh Compiler chained to the
// enclosing one, then emits CLOSURE plus the capture-list bytes
// describing how each of its upvalues should be populated at runtime
// (spec §4.3/§4.4's Closure opcode).
func (p *parser) function(fnType FunctionType) {
	fn := p.vm.NewFunction()
	p.vm.PushCompilerRoot(fn)
	defer p.vm.PopCompilerRoot()

	fn.Name = p.vm.InternString(p.previous.Lexeme)

	enclosing := p.compiler
	p.compiler = &Compiler{enclosing: enclosing, function: fn, fnType: fnType}
	receiverName := ""
	if fnType != TypeFunction {
		receiverName = "this"
	}
	p.compiler.locals = append(p.compiler.locals, Local{name: lexer.Token{Lexeme: receiverName}, depth: 0})

	p.beginScope()

	p.consume(lexer.TokenLeftParen, "Expect '(' after function name.")
	if !p.check(lexer.TokenRightParen) {
		for {
			fn.Arity++
			if fn.Arity > maxArgs {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "Expect ')' after parameters.")
	p.consume(lexer.TokenLeftBrace, "Expect '{' before function body.")
	p.block()

	captures := p.compiler.upvalues
	compiled := p.endCompiler()

	p.emitBytes(byte(opcode.Closure), p.makeConstant(value.Obj(compiled)))
	for _, up := range captures {
		if up.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(up.index)
	}
}

// classDeclaration compiles `class Name [< Super] { methods... }`.
// The class object itself is created and bound to a global (or local)
// variable before its methods are compiled, so a method can refer to
// its own class by name recursively; INHERIT and each METHOD opcode
// run against the class value left on the stack for the duration of
// the body (spec §4.4 CLASS/INHERIT/METHOD).
func (p *parser) classDeclaration() {
	p.consume(lexer.TokenIdentifier, "Expect class name.")
	className := p.previous
	nameConstant := p.identifierConstant(className)
	p.declareVariable()

	p.emitBytes(byte(opcode.Class), nameConstant)
	p.defineVariable(nameConstant)

	classCompilerState := &classCompiler{enclosing: p.class}
	p.class = classCompilerState
	defer func() { p.class = classCompilerState.enclosing }()

	if p.match(lexer.TokenLess) {
		p.consume(lexer.TokenIdentifier, "Expect superclass name.")
		variable(p, false)
		if identifiersEqual(className, p.previous) {
			p.error("A class can't inherit from itself.")
		}

		p.beginScope()
		p.addLocal(lexer.Token{Type: lexer.TokenSuper, Lexeme: "super"})
		p.defineVariable(0)

		p.namedVariable(className, false)
		p.emitByte(byte(opcode.Inherit))
		classCompilerState.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(lexer.TokenLeftBrace, "Expect '{' before class body.")
	for !p.check(lexer.TokenRightBrace) && !p.check(lexer.TokenEOF) {
		p.method()
	}
	p.consume(lexer.TokenRightBrace, "Expect '}' after class body.")
	p.emitByte(byte(opcode.Pop)) // the class value pushed for namedVariable above

	if classCompilerState.hasSuperclass {
		p.endScope()
	}
}

func (p *parser) method() {
	p.consume(lexer.TokenIdentifier, "Expect method name.")
	name := p.previous
	constant := p.identifierConstant(name)

	fnType := TypeMethod
	if name.Lexeme == "init" {
		fnType = TypeInitializer
	}
	p.function(fnType)
	p.emitBytes(byte(opcode.Method), constant)
}
