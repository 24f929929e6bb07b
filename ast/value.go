package ast

import (
	"math/big"
)

// NewInt creates a node of type int and sets it to the given value
func NewInt(pos Pos, v *big.Int) *Node {
	return newNode(NodeTypeInt, pos, new(big.Int).Set(v))
}

// NewInt64 creates a node of type int from a machine integer
func NewInt64(pos Pos, v int64) *Node {
	return newNode(NodeTypeInt, pos, big.NewInt(v))
}

// NewFloat creates a node of type float and sets it to the given value
func NewFloat(pos Pos, v float64) *Node {
	return newNode(NodeTypeFloat, pos, v)
}

// NewString creates a node of type string and sets it to the given value
func NewString(pos Pos, v string) *Node {
	return newNode(NodeTypeString, pos, v)
}

// NewBool creates a node of type bool and sets it to the given value
func NewBool(pos Pos, v bool) *Node {
	return newNode(NodeTypeBool, pos, v)
}

// NewNull creates a node of type null
func NewNull(pos Pos) *Node {
	return newNode(NodeTypeNull, pos, nil)
}

// NewSymbol creates a node of type symbol with the given name
func NewSymbol(pos Pos, name string) *Node {
	return newNode(NodeTypeSymbol, pos, name)
}

// NewKeyword creates a node of type keyword, name excludes the colon
func NewKeyword(pos Pos, name string) *Node {
	return newNode(NodeTypeKeyword, pos, name)
}
