package lexer

import (
	"fmt"
)

// pairs maps every opening delimiter to its closer.
var pairs = map[TokenType]TokenType{
	TokenOpenExpression: TokenCloseExpression,
	TokenOpenList:       TokenCloseList,
	TokenOpenMap:        TokenCloseMap,
}

// Token is a lexical unit along with the position of its first character.
type Token struct {
	tt     TokenType
	lexeme string

	line int
	col  int
}

// NewToken creates a lexical unit
func NewToken(tt TokenType, lexeme string, line int, col int) *Token {
	return &Token{
		tt:     tt,
		lexeme: lexeme,
		line:   line,
		col:    col,
	}
}

// Type returns the type of the lexical unit
func (t Token) Type() TokenType {
	return t.tt
}

// Pos returns the 1-based line and column where the token starts.
func (t Token) Pos() (int, int) {
	return t.line, t.col
}

// Text returns the text of the lexical unit. Strings are already decoded,
// keywords and hash references come without their sigil.
func (t Token) Text() string {
	return t.lexeme
}

// Is returns true if the token matches the given type
func (t Token) Is(tt TokenType) bool {
	return t.tt == tt
}

// Opens reports whether the token starts an expression, list or map.
func (t Token) Opens() bool {
	_, ok := pairs[t.tt]
	return ok
}

// Closes reports whether the token ends an expression, list or map.
func (t Token) Closes() bool {
	switch t.tt {
	case TokenCloseExpression, TokenCloseList, TokenCloseMap:
		return true
	}
	return false
}

// Closer returns the type that ends a sequence opened by t.
func (t Token) Closer() TokenType {
	if closer, ok := pairs[t.tt]; ok {
		return closer
	}
	return TokenInvalid
}

// Delimiter returns the source character of a bracket token.
func (t Token) Delimiter() string {
	if v, ok := tokenValues[t.tt]; ok && (t.Opens() || t.Closes()) {
		return string(v)
	}
	return ""
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q at %d:%d", t.tt, t.lexeme, t.line, t.col)
}
