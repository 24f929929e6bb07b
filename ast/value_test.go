package ast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeValues(t *testing.T) {
	pos := Pos{}

	testCases := []struct {
		In  *Node
		Out string
	}{
		{NewInt64(pos, -12), `-12`},
		{NewFloat(pos, 3.5), `3.5`},
		{NewFloat(pos, 2), `2.0`},
		{NewFloat(pos, 1e20), `100000000000000000000.0`},
		{NewFloat(pos, math.Inf(1)), `(float "inf")`},
		{NewString(pos, "a\"b\nc\\"), `"a\"b\nc\\"`},
		{NewBool(pos, true), `T`},
		{NewBool(pos, false), `F`},
		{NewNull(pos), `N`},
		{NewSymbol(pos, "make-adder"), `make-adder`},
		{NewKeyword(pos, "name"), `:name`},
		{NewList(pos, NewInt64(pos, 1), NewList(pos)), `[1 []]`},
		{NewMap(pos, NewKeyword(pos, "a"), NewInt64(pos, 1)), `{:a 1}`},
		{NewExpression(pos), `()`},
		{NewExpression(pos, NewSymbol(pos, "quote"), NewSymbol(pos, "x")), `(quote x)`},
	}

	for i := range testCases {
		assert.Equal(t, testCases[i].Out, string(Encode(testCases[i].In)))
	}
}

func TestEncodeForest(t *testing.T) {
	pos := Pos{}
	forest := []*Node{
		NewExpression(pos, NewSymbol(pos, "def"), NewSymbol(pos, "x"), NewInt64(pos, 1)),
		NewSymbol(pos, "x"),
	}
	assert.Equal(t, "(def x 1)\nx", string(EncodeForest(forest)))
}
