package compiler

import (
	"strconv"

	"github.com/kristofer/smog/pkg/lexer"
	"github.com/kristofer/smog/pkg/opcode"
	"github.com/kristofer/smog/pkg/value"
)

// precedence orders smog's binary operators from loosest to tightest
// binding, per spec §4.3's Pratt parser table. parsePrecedence only
// ever consumes an infix operator whose own precedence is at least as
// tight as the level it was called with.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenLeftParen:    {grouping, call, precCall},
		lexer.TokenDot:          {nil, dot, precCall},
		lexer.TokenMinus:        {unary, binary, precTerm},
		lexer.TokenPlus:         {nil, binary, precTerm},
		lexer.TokenSlash:        {nil, binary, precFactor},
		lexer.TokenStar:         {nil, binary, precFactor},
		lexer.TokenBang:         {unary, nil, precNone},
		lexer.TokenBangEqual:    {nil, binary, precEquality},
		lexer.TokenEqualEqual:   {nil, binary, precEquality},
		lexer.TokenGreater:      {nil, binary, precComparison},
		lexer.TokenGreaterEqual: {nil, binary, precComparison},
		lexer.TokenLess:         {nil, binary, precComparison},
		lexer.TokenLessEqual:    {nil, binary, precComparison},
		lexer.TokenIdentifier:   {variable, nil, precNone},
		lexer.TokenString:       {stringLit, nil, precNone},
		lexer.TokenNumber:       {number, nil, precNone},
		lexer.TokenAnd:          {nil, and_, precAnd},
		lexer.TokenOr:           {nil, or_, precOr},
		lexer.TokenFalse:        {literal, nil, precNone},
		lexer.TokenNil:          {literal, nil, precNone},
		lexer.TokenTrue:         {literal, nil, precNone},
		lexer.TokenThis:         {this_, nil, precNone},
		lexer.TokenSuper:        {super_, nil, precNone},
	}
}

func ruleFor(t lexer.TokenType) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{}
}

// parsePrecedence is the Pratt parser's core: it consumes a prefix
// expression, then greedily folds in infix operators whose precedence
// is at or above minPrec, exactly the mechanism spec §4.3 names.
func (p *parser) parsePrecedence(minPrec precedence) {
	p.advance()
	prefixRule := ruleFor(p.previous.Type).prefix
	if prefixRule == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := minPrec <= precAssignment
	prefixRule(p, canAssign)

	for minPrec <= ruleFor(p.current.Type).precedence {
		p.advance()
		infixRule := ruleFor(p.previous.Type).infix
		infixRule(p, canAssign)
	}

	if canAssign && p.match(lexer.TokenEqual) {
		p.error("Invalid assignment target.")
	}
}

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

func grouping(p *parser, _ bool) {
	p.expression()
	p.consume(lexer.TokenRightParen, "Expect ')' after expression.")
}

func number(p *parser, _ bool) {
	n, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(value.Number(n))
}

func stringLit(p *parser, _ bool) {
	raw := p.previous.Lexeme
	content := raw[1 : len(raw)-1] // strip the surrounding quotes
	p.emitConstant(value.Obj(p.vm.InternString(content)))
}

func literal(p *parser, _ bool) {
	switch p.previous.Type {
	case lexer.TokenFalse:
		p.emitByte(byte(opcode.False))
	case lexer.TokenNil:
		p.emitByte(byte(opcode.Nil))
	case lexer.TokenTrue:
		p.emitByte(byte(opcode.True))
	}
}

func variable(p *parser, canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

func this_(p *parser, _ bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	variable(p, false)
}

func super_(p *parser, _ bool) {
	if p.class == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.class.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(lexer.TokenDot, "Expect '.' after 'super'.")
	p.consume(lexer.TokenIdentifier, "Expect superclass method name.")
	name := p.identifierConstant(p.previous)

	p.namedVariable(lexer.Token{Type: lexer.TokenThis, Lexeme: "this"}, false)
	if p.match(lexer.TokenLeftParen) {
		argCount := p.argumentList()
		p.namedVariable(lexer.Token{Type: lexer.TokenSuper, Lexeme: "super"}, false)
		p.emitBytes(byte(opcode.SuperInvoke), name)
		p.emitByte(argCount)
	} else {
		p.namedVariable(lexer.Token{Type: lexer.TokenSuper, Lexeme: "super"}, false)
		p.emitBytes(byte(opcode.GetSuper), name)
	}
}

func unary(p *parser, _ bool) {
	opType := p.previous.Type
	p.parsePrecedence(precUnary)

	switch opType {
	case lexer.TokenBang:
		p.emitByte(byte(opcode.Not))
	case lexer.TokenMinus:
		p.emitByte(byte(opcode.Negate))
	}
}

func binary(p *parser, _ bool) {
	opType := p.previous.Type
	rule := ruleFor(opType)
	p.parsePrecedence(rule.precedence + 1)

	switch opType {
	case lexer.TokenBangEqual:
		p.emitBytes(byte(opcode.Equal), byte(opcode.Not))
	case lexer.TokenEqualEqual:
		p.emitByte(byte(opcode.Equal))
	case lexer.TokenGreater:
		p.emitByte(byte(opcode.Greater))
	case lexer.TokenGreaterEqual:
		p.emitBytes(byte(opcode.Less), byte(opcode.Not))
	case lexer.TokenLess:
		p.emitByte(byte(opcode.Less))
	case lexer.TokenLessEqual:
		p.emitBytes(byte(opcode.Greater), byte(opcode.Not))
	case lexer.TokenPlus:
		p.emitByte(byte(opcode.Add))
	case lexer.TokenMinus:
		p.emitByte(byte(opcode.Subtract))
	case lexer.TokenStar:
		p.emitByte(byte(opcode.Multiply))
	case lexer.TokenSlash:
		p.emitByte(byte(opcode.Divide))
	}
}

func and_(p *parser, _ bool) {
	endJump := p.emitJump(byte(opcode.JumpIfFalse))
	p.emitByte(byte(opcode.Pop))
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func or_(p *parser, _ bool) {
	elseJump := p.emitJump(byte(opcode.JumpIfFalse))
	endJump := p.emitJump(byte(opcode.Jump))

	p.patchJump(elseJump)
	p.emitByte(byte(opcode.Pop))

	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func call(p *parser, _ bool) {
	argCount := p.argumentList()
	p.emitBytes(byte(opcode.Call), argCount)
}

func dot(p *parser, canAssign bool) {
	p.consume(lexer.TokenIdentifier, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous)

	switch {
	case canAssign && p.match(lexer.TokenEqual):
		p.expression()
		p.emitBytes(byte(opcode.SetProperty), name)
	case p.match(lexer.TokenLeftParen):
		argCount := p.argumentList()
		p.emitBytes(byte(opcode.Invoke), name)
		p.emitByte(argCount)
	default:
		p.emitBytes(byte(opcode.GetProperty), name)
	}
}

func (p *parser) argumentList() byte {
	count := 0
	if !p.check(lexer.TokenRightParen) {
		for {
			p.expression()
			if count == maxArgs {
				p.error("Can't have more than 255 arguments.")
			}
			count++
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "Expect ')' after arguments.")
	return byte(count)
}
