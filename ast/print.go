package ast

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// Print writes a human-readable tree representation of a node to w
func Print(w io.Writer, n *Node) {
	printLevel(w, n, 0)
}

func printLevel(w io.Writer, n *Node, level int) {
	indent := strings.Repeat("    ", level)
	if n == nil {
		fmt.Fprintf(w, "%s:nil\n", indent)
		return
	}
	fmt.Fprintf(w, "%s(%s): ", indent, n.Type())
	if n.IsVector() {
		fmt.Fprintf(w, "[%v]\n", n.Pos())
		list := n.List()
		for i := range list {
			printLevel(w, list[i], level+1)
		}
		return
	}
	fmt.Fprintf(w, "%s [%v]\n", encodeValue(n), n.Pos())
}

// Encode transforms a node into its canonical text representation. Parsing
// the result yields a tree that is Equal to n.
func Encode(n *Node) []byte {
	var b strings.Builder
	encodeNode(&b, n)
	return []byte(b.String())
}

// EncodeForest encodes a sequence of top-level nodes, one per line.
func EncodeForest(forest []*Node) []byte {
	var b strings.Builder
	for i := range forest {
		if i > 0 {
			b.WriteByte('\n')
		}
		encodeNode(&b, forest[i])
	}
	return []byte(b.String())
}

func encodeNode(b *strings.Builder, n *Node) {
	if n == nil {
		b.WriteString("N")
		return
	}
	switch n.Type() {
	case NodeTypeMap:
		encodeChildren(b, "{", "}", n.List())
	case NodeTypeList:
		encodeChildren(b, "[", "]", n.List())
	case NodeTypeExpression:
		encodeChildren(b, "(", ")", n.List())
	default:
		b.WriteString(encodeValue(n))
	}
}

func encodeChildren(b *strings.Builder, open, close string, nodes []*Node) {
	b.WriteString(open)
	for i := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		encodeNode(b, nodes[i])
	}
	b.WriteString(close)
}

func encodeValue(n *Node) string {
	switch n.Type() {
	case NodeTypeInt:
		return n.Int().String()
	case NodeTypeFloat:
		return EncodeFloat(n.Float())
	case NodeTypeString:
		return `"` + stringEscaper.Replace(n.Str()) + `"`
	case NodeTypeBool:
		if n.Bool() {
			return "T"
		}
		return "F"
	case NodeTypeNull:
		return "N"
	case NodeTypeSymbol:
		return n.Name()
	case NodeTypeKeyword:
		return ":" + n.Name()
	}
	panic("unknown node type")
}

// EncodeFloat writes f in a form the lexer reads back as the same float.
// Values without a literal syntax are written as conversions.
func EncodeFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return `(float "nan")`
	case math.IsInf(f, 1):
		return `(float "inf")`
	case math.IsInf(f, -1):
		return `(float "-inf")`
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
