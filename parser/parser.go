// Package parser builds a forest of AST nodes from tokens, by recursive
// descent with one token of lookahead.
package parser

import (
	"math/big"
	"strconv"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/lexer"
)

// reader macros and the form each one expands to
var readerMacros = map[lexer.TokenType]string{
	lexer.TokenQuote:   "quote",
	lexer.TokenUnquote: "unquote",
	lexer.TokenSplice:  "splice",
}

var tokenEOF = lexer.NewToken(lexer.TokenEOF, "", 0, 0)

// Parser consumes a token sequence.
type Parser struct {
	tokens []lexer.Token
	offset int

	lastTok *lexer.Token
}

// New creates a parser over tokens produced by lexer.Tokenize.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) peek() *lexer.Token {
	if p.offset < len(p.tokens) {
		return &p.tokens[p.offset]
	}
	if p.lastTok != nil {
		line, col := p.lastTok.Pos()
		return lexer.NewToken(lexer.TokenEOF, "", line, col)
	}
	return tokenEOF
}

func (p *Parser) next() *lexer.Token {
	tok := p.peek()
	if p.offset < len(p.tokens) {
		p.offset++
	}
	p.lastTok = tok
	return tok
}

// Parse reads every top-level expression.
func (p *Parser) Parse() ([]*ast.Node, error) {
	forest := []*ast.Node{}
	for !p.peek().Is(lexer.TokenEOF) {
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		forest = append(forest, node)
	}
	return forest, nil
}

func (p *Parser) parseExpr() (*ast.Node, error) {
	tok := p.next()
	pos := posOf(tok)

	switch tok.Type() {
	case lexer.TokenInt:
		v, ok := new(big.Int).SetString(tok.Text(), 10)
		if !ok {
			return nil, errorAt(ErrUnexpectedToken, tok, "invalid integer %q", tok.Text())
		}
		return ast.NewInt(pos, v), nil

	case lexer.TokenFloat:
		f, err := strconv.ParseFloat(tok.Text(), 64)
		if err != nil {
			return nil, errorAt(ErrUnexpectedToken, tok, "invalid float %q", tok.Text())
		}
		return ast.NewFloat(pos, f), nil

	case lexer.TokenString:
		return ast.NewString(pos, tok.Text()), nil

	case lexer.TokenBool:
		return ast.NewBool(pos, tok.Text() == "T"), nil

	case lexer.TokenNull:
		return ast.NewNull(pos), nil

	case lexer.TokenSymbol:
		return ast.NewSymbol(pos, tok.Text()), nil

	case lexer.TokenPipe:
		return ast.NewSymbol(pos, "|>"), nil

	case lexer.TokenKeyword:
		return ast.NewKeyword(pos, tok.Text()), nil

	case lexer.TokenHashRef:
		return ast.NewString(pos, "#"+tok.Text()), nil

	case lexer.TokenQuote, lexer.TokenUnquote, lexer.TokenSplice:
		if p.peek().Is(lexer.TokenEOF) {
			return nil, errorAt(ErrUnexpectedEOF, tok, "expecting expression after %q", tok.Text())
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewExpression(pos, ast.NewSymbol(pos, readerMacros[tok.Type()]), inner), nil

	case lexer.TokenOpenExpression:
		children, err := p.parseSequence(tok)
		if err != nil {
			return nil, err
		}
		return ast.NewExpression(pos, children...), nil

	case lexer.TokenOpenList:
		children, err := p.parseSequence(tok)
		if err != nil {
			return nil, err
		}
		return ast.NewList(pos, children...), nil

	case lexer.TokenOpenMap:
		children, err := p.parseSequence(tok)
		if err != nil {
			return nil, err
		}
		if err := checkMapEntries(tok, children); err != nil {
			return nil, err
		}
		return ast.NewMap(pos, children...), nil

	case lexer.TokenEOF:
		return nil, errorAt(ErrUnexpectedEOF, tok, "unexpected end of input")

	}

	if tok.Closes() {
		return nil, errorAt(ErrUnexpectedToken, tok, "unmatched %q", tok.Delimiter())
	}

	return nil, errorAt(ErrUnexpectedToken, tok, "unexpected token %v", tok)
}

// parseSequence reads expressions until the closer matching opener.
func (p *Parser) parseSequence(opener *lexer.Token) ([]*ast.Node, error) {
	closer := opener.Closer()
	children := []*ast.Node{}

	for {
		tok := p.peek()
		switch {
		case tok.Is(closer):
			p.next()
			return children, nil

		case tok.Is(lexer.TokenEOF):
			return nil, errorAt(ErrUnexpectedEOF, opener, "unclosed %q", opener.Delimiter())

		case tok.Closes():
			line, col := tok.Pos()
			return nil, errorAt(ErrUnexpectedToken, opener, "unclosed %q, found %q at line %d, col %d",
				opener.Delimiter(), tok.Delimiter(), line, col)
		}

		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}
}

// checkMapEntries validates alternating keyword/value entries. Duplicated
// keys are accepted, the evaluator keeps the last value.
func checkMapEntries(opener *lexer.Token, children []*ast.Node) error {
	if len(children)%2 != 0 {
		return errorAt(ErrInvalidMap, opener, "map literal has an odd number of entries (%d)", len(children))
	}
	for i := 0; i < len(children); i += 2 {
		if key := children[i]; key.Type() != ast.NodeTypeKeyword {
			return nodeError(ErrInvalidMap, key, "map keys must be keywords, got %s", key.Type())
		}
	}
	return nil
}

// ParseTokens builds the AST forest of a token sequence.
func ParseTokens(tokens []lexer.Token) ([]*ast.Node, error) {
	return New(tokens).Parse()
}

// Parse tokenizes and parses source text.
func Parse(in []byte) ([]*ast.Node, error) {
	tokens, err := lexer.Tokenize(in)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}
