// Package ast defines the syntax tree produced by the parser and consumed by
// the macro expander, the evaluator and the code generators.
//
// Nodes are immutable: children are handed over at construction time and
// there is no way to modify a node afterwards. Code that rewrites a tree
// builds new nodes.
package ast

import (
	"fmt"
	"math/big"
)

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node represents leaf of the AST
type Node struct {
	nt  NodeType
	pos Pos

	v        interface{}
	children []*Node
}

func newNode(nt NodeType, pos Pos, v interface{}) *Node {
	return &Node{
		nt:  nt,
		pos: pos,
		v:   v,
	}
}

func newVector(nt NodeType, pos Pos, children []*Node) *Node {
	list := make([]*Node, len(children))
	copy(list, children)
	return &Node{
		nt:       nt,
		pos:      pos,
		children: list,
	}
}

// NewExpression creates and returns a node of type "expression"
func NewExpression(pos Pos, children ...*Node) *Node {
	return newVector(NodeTypeExpression, pos, children)
}

// NewMap creates and returns a node of type "map". Children alternate
// between keys and values.
func NewMap(pos Pos, children ...*Node) *Node {
	return newVector(NodeTypeMap, pos, children)
}

// NewList creates and returns a node of type "list"
func NewList(pos Pos, children ...*Node) *Node {
	return newVector(NodeTypeList, pos, children)
}

// NewVector creates a node of the same vector type as nt.
func NewVector(nt NodeType, pos Pos, children ...*Node) *Node {
	if nt&nodeTypeVector == 0 {
		panic("not a vector type")
	}
	return newVector(nt, pos, children)
}

// Type returns the type of the node
func (n *Node) Type() NodeType {
	return n.nt
}

// Pos returns the position of the node in the source
func (n *Node) Pos() Pos {
	return n.pos
}

// Value returns the value of the node
func (n *Node) Value() interface{} {
	return n.v
}

// Int returns the value of an int node.
func (n *Node) Int() *big.Int {
	return n.v.(*big.Int)
}

// Float returns the value of a float node.
func (n *Node) Float() float64 {
	return n.v.(float64)
}

// Bool returns the value of a bool node.
func (n *Node) Bool() bool {
	return n.v.(bool)
}

// Str returns the value of a string node.
func (n *Node) Str() string {
	return n.v.(string)
}

// Name returns the name of a symbol or keyword node.
func (n *Node) Name() string {
	return n.v.(string)
}

// List returns all the children elements of the node. The returned slice
// must not be modified.
func (n *Node) List() []*Node {
	return n.children
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.children)
}

// IsValue returns true if the node is of type value
func (n *Node) IsValue() bool {
	return n.nt&nodeTypeValue > 0
}

// IsVector returns true if the node is of type vector
func (n *Node) IsVector() bool {
	return n.nt&nodeTypeVector > 0
}

// IsSymbol returns true if the node is a symbol with the given name.
func (n *Node) IsSymbol(name string) bool {
	return n.nt == NodeTypeSymbol && n.v.(string) == name
}

// Head returns the name of the symbol in operator position of an expression,
// or an empty string.
func (n *Node) Head() string {
	if n.nt != NodeTypeExpression || len(n.children) == 0 {
		return ""
	}
	if first := n.children[0]; first.nt == NodeTypeSymbol {
		return first.v.(string)
	}
	return ""
}

// IsForm returns true if n is an expression whose operator is the symbol
// name.
func (n *Node) IsForm(name string) bool {
	return n.Head() == name
}

func (n *Node) String() string {
	switch n.nt {
	case NodeTypeExpression, NodeTypeList, NodeTypeMap:
		return fmt.Sprintf("(%v)[%d]", nodeTypeName[n.nt], len(n.children))
	}
	return fmt.Sprintf("(%v): %s", nodeTypeName[n.nt], encodeValue(n))
}

// Equal reports whether two trees are structurally identical, ignoring
// positions.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.nt != b.nt {
		return false
	}
	if a.IsVector() {
		if len(a.children) != len(b.children) {
			return false
		}
		for i := range a.children {
			if !Equal(a.children[i], b.children[i]) {
				return false
			}
		}
		return true
	}
	switch a.nt {
	case NodeTypeInt:
		return a.Int().Cmp(b.Int()) == 0
	case NodeTypeNull:
		return true
	}
	return a.v == b.v
}

// EqualForest compares two node sequences with Equal.
func EqualForest(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
