package parser

import (
	"errors"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
	"github.com/xiam/hive/lexer"
)

// Sentinels wrapped by parse errors, usable with errors.Is. Input that ends
// inside an open bracket always wraps ErrUnexpectedEOF.
var (
	ErrUnexpectedEOF   = errors.New("unexpected EOF")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrInvalidMap      = errors.New("invalid map literal")
)

func posOf(tok *lexer.Token) ast.Pos {
	line, col := tok.Pos()
	return ast.Pos{Line: line, Col: col}
}

func errorAt(sentinel error, tok *lexer.Token, format string, args ...interface{}) error {
	line, col := tok.Pos()
	return diag.Wrap(sentinel, diag.Parse, line, col, format, args...)
}

func nodeError(sentinel error, n *ast.Node, format string, args ...interface{}) error {
	pos := n.Pos()
	return diag.Wrap(sentinel, diag.Parse, pos.Line, pos.Col, format, args...)
}
