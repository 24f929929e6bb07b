// Package lexer turns source text into a sequence of positioned tokens.
package lexer

import (
	"github.com/xiam/hive/diag"
)

type lexState func(*Lexer) lexState

const eof = rune(-1)

var (
	isOpenList  = isTokenType(TokenOpenList)
	isCloseList = isTokenType(TokenCloseList)

	isOpenMap  = isTokenType(TokenOpenMap)
	isCloseMap = isTokenType(TokenCloseMap)

	isOpenExpression  = isTokenType(TokenOpenExpression)
	isCloseExpression = isTokenType(TokenCloseExpression)

	isQuote       = isTokenType(TokenQuote)
	isUnquote     = isTokenType(TokenUnquote)
	isDoubleQuote = isTokenType(TokenString)
	isHash        = isTokenType(TokenHashRef)
	isColon       = isTokenType(TokenKeyword)

	isDigit       = isTokenType(TokenInt)
	isSymbolStart = isTokenType(TokenSymbol)
)

var escapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'\\': '\\',
	'"':  '"',
}

// New initializes a Lexer object
func New(in []byte) *Lexer {
	return &Lexer{
		in:     []rune(string(in)),
		tokens: []Token{},
		buf:    []rune{},
		line:   1,
		col:    1,
	}
}

// Lexer represents a lexical analyzer
type Lexer struct {
	in  []rune
	pos int

	tokens  []Token
	lastErr error

	buf []rune

	line int
	col  int

	startLine int
	startCol  int
}

// Tokens returns the tokens collected by Scan.
func (lx *Lexer) Tokens() []Token {
	return lx.tokens
}

// Scan reads the whole input. The last token is always of type TokenEOF
// unless an error is returned.
func (lx *Lexer) Scan() error {
	for state := lexDefaultState; state != nil; {
		state = state(lx)
	}
	return lx.lastErr
}

func (lx *Lexer) mark() {
	lx.startLine, lx.startCol = lx.line, lx.col
	lx.buf = lx.buf[0:0]
}

func (lx *Lexer) emit(tt TokenType) {
	lx.emitText(tt, string(lx.buf))
}

func (lx *Lexer) emitText(tt TokenType, text string) {
	lx.tokens = append(lx.tokens, Token{
		tt:     tt,
		lexeme: text,

		line: lx.startLine,
		col:  lx.startCol,
	})
	lx.buf = lx.buf[0:0]
}

func (lx *Lexer) peek() rune {
	return lx.peekAt(0)
}

func (lx *Lexer) peekAt(n int) rune {
	if lx.pos+n >= len(lx.in) {
		return eof
	}
	return lx.in[lx.pos+n]
}

// next consumes one rune and appends it to the token buffer.
func (lx *Lexer) next() rune {
	if lx.pos >= len(lx.in) {
		return eof
	}

	r := lx.in[lx.pos]
	lx.pos++

	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}

	lx.buf = append(lx.buf, r)
	return r
}

func (lx *Lexer) errorf(line, col int, format string, args ...interface{}) lexState {
	return func(lx *Lexer) lexState {
		lx.lastErr = diag.Errorf(diag.Lex, line, col, format, args...)
		return nil
	}
}

func lexDefaultState(lx *Lexer) lexState {
	for {
		r := lx.peek()
		if r == ';' {
			for r != '\n' && r != eof {
				lx.next()
				r = lx.peek()
			}
			continue
		}
		if !isWhitespace(r) {
			break
		}
		lx.next()
	}

	lx.mark()

	r := lx.next()
	switch {

	case r == eof:
		lx.emitText(TokenEOF, "")
		return nil

	case isOpenList(r):
		return lexEmit(TokenOpenList)
	case isCloseList(r):
		return lexEmit(TokenCloseList)

	case isOpenMap(r):
		return lexEmit(TokenOpenMap)
	case isCloseMap(r):
		return lexEmit(TokenCloseMap)

	case isOpenExpression(r):
		return lexEmit(TokenOpenExpression)
	case isCloseExpression(r):
		return lexEmit(TokenCloseExpression)

	case isQuote(r):
		return lexEmit(TokenQuote)
	case isUnquote(r):
		if lx.peek() == '@' {
			lx.next()
			return lexEmit(TokenSplice)
		}
		return lexEmit(TokenUnquote)

	case r == '|' && lx.peek() == '>':
		lx.next()
		return lexEmit(TokenPipe)

	case isDoubleQuote(r):
		return lexString
	case isHash(r):
		return lexHashRef
	case isColon(r):
		return lexKeyword

	case isDigit(r), r == '-' && isDigit(lx.peek()):
		return lexNumber

	case isSymbolStart(r):
		return lexSymbol

	}

	return lx.errorf(lx.startLine, lx.startCol, "unexpected character %q", r)
}

func lexEmit(tt TokenType) lexState {
	return func(lx *Lexer) lexState {
		lx.emit(tt)
		return lexDefaultState
	}
}

func lexString(lx *Lexer) lexState {
	text := []rune{}
	for {
		line, col := lx.line, lx.col
		r := lx.next()

		switch {
		case r == eof:
			return lx.errorf(lx.startLine, lx.startCol, "unterminated string")

		case isDoubleQuote(r):
			lx.emitText(TokenString, string(text))
			return lexDefaultState

		case r == '\\':
			e := lx.next()
			if e == eof {
				return lx.errorf(lx.startLine, lx.startCol, "unterminated string")
			}
			v, ok := escapes[e]
			if !ok {
				return lx.errorf(line, col, "unknown escape sequence \\%c", e)
			}
			text = append(text, v)

		default:
			text = append(text, r)
		}
	}
}

func lexNumber(lx *Lexer) lexState {
	tt := TokenInt

	for isDigit(lx.peek()) {
		lx.next()
	}

	if lx.peek() == '.' && isDigit(lx.peekAt(1)) {
		tt = TokenFloat
		lx.next()
		for isDigit(lx.peek()) {
			lx.next()
		}
	}

	if p := lx.peek(); p != eof && !isDelimiter(p) {
		return lx.errorf(lx.startLine, lx.startCol, "malformed number %q", string(lx.buf)+string(p))
	}

	return lexEmit(tt)
}

func lexKeyword(lx *Lexer) lexState {
	if !isKeywordStart(lx.peek()) {
		return lx.errorf(lx.startLine, lx.startCol, "expecting keyword name after ':'")
	}

	lexCollectWord(lx)
	lx.emitText(TokenKeyword, string(lx.buf[1:]))
	return lexDefaultState
}

func lexHashRef(lx *Lexer) lexState {
	lexCollectWord(lx)
	if len(lx.buf) < 2 {
		return lx.errorf(lx.startLine, lx.startCol, "expecting name after '#'")
	}
	lx.emitText(TokenHashRef, string(lx.buf[1:]))
	return lexDefaultState
}

func lexSymbol(lx *Lexer) lexState {
	lexCollectWord(lx)

	switch string(lx.buf) {
	case "T", "F":
		return lexEmit(TokenBool)
	case "N":
		return lexEmit(TokenNull)
	}
	return lexEmit(TokenSymbol)
}

func lexCollectWord(lx *Lexer) {
	for p := lx.peek(); p != eof && !isDelimiter(p); p = lx.peek() {
		lx.next()
	}
}

// Tokenize takes an array of bytes and returns all the tokens within it,
// or an error if a token can't be identified.
func Tokenize(in []byte) ([]Token, error) {
	lx := New(in)
	if err := lx.Scan(); err != nil {
		return nil, err
	}
	return lx.Tokens(), nil
}
