package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

func types(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, `class fun var this super nil foo`)
	assert.Equal(t, []TokenType{
		TokenClass, TokenFun, TokenVar, TokenThis, TokenSuper, TokenNil, TokenIdentifier, TokenEOF,
	}, types(toks))
}

func TestLexerOperatorsAndPunctuation(t *testing.T) {
	toks := scanAll(t, `== != <= >= < > + - * / . , ; ( ) { }`)
	want := []TokenType{
		TokenEqualEqual, TokenBangEqual, TokenLessEqual, TokenGreaterEqual,
		TokenLess, TokenGreater, TokenPlus, TokenMinus, TokenStar, TokenSlash,
		TokenDot, TokenComma, TokenSemicolon, TokenLeftParen, TokenRightParen,
		TokenLeftBrace, TokenRightBrace, TokenEOF,
	}
	assert.Equal(t, want, types(toks))
}

func TestLexerStringAndNumberLiterals(t *testing.T) {
	toks := scanAll(t, `"hello" 3.14 42`)
	assert.Equal(t, []TokenType{TokenString, TokenNumber, TokenNumber, TokenEOF}, types(toks))
	assert.Equal(t, `"hello"`, toks[0].Lexeme)
	assert.Equal(t, "3.14", toks[1].Lexeme)
}

func TestLexerSkipsCommentsAndWhitespace(t *testing.T) {
	toks := scanAll(t, "// a comment\nvar x = 1; // trailing\n")
	assert.Equal(t, []TokenType{TokenVar, TokenIdentifier, TokenEqual, TokenNumber, TokenSemicolon, TokenEOF}, types(toks))
}

func TestLexerUnterminatedStringIsErrorToken(t *testing.T) {
	toks := scanAll(t, `"never closed`)
	assert.Equal(t, TokenError, toks[0].Type)
}

func TestLexerTracksLineNumbers(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;\n")
	assert.Equal(t, 1, toks[0].Line)
	var bLine int
	for _, tok := range toks {
		if tok.Type == TokenIdentifier && tok.Lexeme == "b" {
			bLine = tok.Line
		}
	}
	assert.Equal(t, 2, bLine)
}
