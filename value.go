package hive

import (
	"fmt"
	"math"
	"math/big"

	"github.com/benbjohnson/immutable"

	"github.com/xiam/hive/ast"
)

// ValueType identifies the runtime type of a Value.
type ValueType uint8

// Runtime types
const (
	ValueTypeNull ValueType = iota
	ValueTypeBool
	ValueTypeInt
	ValueTypeFloat
	ValueTypeString
	ValueTypeKeyword
	ValueTypeSymbol
	ValueTypeList
	ValueTypeMap
	ValueTypeFunction
	ValueTypeBuiltin
)

var valueTypes = map[ValueType]string{
	ValueTypeNull:     "null",
	ValueTypeBool:     "bool",
	ValueTypeInt:      "int",
	ValueTypeFloat:    "float",
	ValueTypeString:   "str",
	ValueTypeKeyword:  "keyword",
	ValueTypeSymbol:   "symbol",
	ValueTypeList:     "list",
	ValueTypeMap:      "map",
	ValueTypeFunction: "fn",
	ValueTypeBuiltin:  "fn",
}

func (vt ValueType) String() string {
	return valueTypes[vt]
}

// Value is an immutable runtime value.
type Value struct {
	v interface{}

	Type ValueType
}

// Function is a closure created by fn or def.
type Function struct {
	Name   string
	Params []string
	Rest   string
	Body   []*ast.Node
	Env    *Env
}

// Arity returns a description of the accepted argument count.
func (f *Function) Arity() string {
	if f.Rest != "" {
		return fmt.Sprintf("at least %d", len(f.Params))
	}
	return fmt.Sprintf("%d", len(f.Params))
}

var (
	Null  = &Value{Type: ValueTypeNull}
	True  = &Value{Type: ValueTypeBool, v: true}
	False = &Value{Type: ValueTypeBool, v: false}

	emptyList = &Value{Type: ValueTypeList, v: immutable.NewList[*Value]()}
	emptyMap  = &Value{Type: ValueTypeMap, v: NewMap()}
)

// NewBoolValue returns True or False.
func NewBoolValue(b bool) *Value {
	if b {
		return True
	}
	return False
}

// NewIntValue wraps an arbitrary precision integer. The value takes
// ownership of v.
func NewIntValue(v *big.Int) *Value {
	return &Value{v: v, Type: ValueTypeInt}
}

// NewInt64Value creates an Int value from a machine integer.
func NewInt64Value(v int64) *Value {
	return NewIntValue(big.NewInt(v))
}

func NewFloatValue(v float64) *Value {
	return &Value{v: v, Type: ValueTypeFloat}
}

func NewStringValue(v string) *Value {
	return &Value{v: v, Type: ValueTypeString}
}

// NewKeywordValue creates a keyword, name excludes the colon.
func NewKeywordValue(name string) *Value {
	return &Value{v: name, Type: ValueTypeKeyword}
}

func NewSymbolValue(name string) *Value {
	return &Value{v: name, Type: ValueTypeSymbol}
}

// NewListValue creates a list holding values in order.
func NewListValue(values ...*Value) *Value {
	if len(values) == 0 {
		return emptyList
	}
	b := immutable.NewListBuilder[*Value]()
	for _, v := range values {
		b.Append(v)
	}
	return &Value{v: b.List(), Type: ValueTypeList}
}

func newListFrom(l *immutable.List[*Value]) *Value {
	return &Value{v: l, Type: ValueTypeList}
}

// NewMapValue wraps an ordered map.
func NewMapValue(m *Map) *Value {
	if m == nil {
		return emptyMap
	}
	return &Value{v: m, Type: ValueTypeMap}
}

func NewFunctionValue(fn *Function) *Value {
	return &Value{v: fn, Type: ValueTypeFunction}
}

func NewBuiltinValue(b *Builtin) *Value {
	return &Value{v: b, Type: ValueTypeBuiltin}
}

func (v *Value) Int() *big.Int {
	return v.v.(*big.Int)
}

func (v *Value) Float64() float64 {
	return v.v.(float64)
}

func (v *Value) Bool() bool {
	return v.v.(bool)
}

// Str returns the content of a string, or the name of a keyword or symbol.
func (v *Value) Str() string {
	return v.v.(string)
}

func (v *Value) List() *immutable.List[*Value] {
	return v.v.(*immutable.List[*Value])
}

// Items copies the elements of a list into a slice.
func (v *Value) Items() []*Value {
	l := v.List()
	items := make([]*Value, 0, l.Len())
	itr := l.Iterator()
	for !itr.Done() {
		_, item := itr.Next()
		items = append(items, item)
	}
	return items
}

func (v *Value) Map() *Map {
	return v.v.(*Map)
}

func (v *Value) Function() *Function {
	return v.v.(*Function)
}

func (v *Value) Builtin() *Builtin {
	return v.v.(*Builtin)
}

// IsNumber returns true for Int and Float values.
func (v *Value) IsNumber() bool {
	return v.Type == ValueTypeInt || v.Type == ValueTypeFloat
}

// IsCallable returns true for functions and builtins.
func (v *Value) IsCallable() bool {
	return v.Type == ValueTypeFunction || v.Type == ValueTypeBuiltin
}

// Len returns the element count of lists and maps.
func (v *Value) Len() int {
	switch v.Type {
	case ValueTypeList:
		return v.List().Len()
	case ValueTypeMap:
		return v.Map().Len()
	}
	return 0
}

func (v *Value) String() string {
	return Format(v)
}

// Truthy reports whether v counts as true in a condition. Null, F, zero,
// the empty string, the empty list and the empty map are false.
func Truthy(v *Value) bool {
	switch v.Type {
	case ValueTypeNull:
		return false
	case ValueTypeBool:
		return v.Bool()
	case ValueTypeInt:
		return v.Int().Sign() != 0
	case ValueTypeFloat:
		return v.Float64() != 0
	case ValueTypeString:
		return v.Str() != ""
	case ValueTypeList, ValueTypeMap:
		return v.Len() > 0
	}
	return true
}

// Equal compares two values structurally. Ints and floats compare by
// numeric value, maps ignore insertion order and functions compare by
// identity.
func Equal(a, b *Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return compareNumbers(a, b) == 0 && !isNaN(a) && !isNaN(b)
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValueTypeNull:
		return true
	case ValueTypeBool:
		return a.Bool() == b.Bool()
	case ValueTypeString, ValueTypeKeyword, ValueTypeSymbol:
		return a.Str() == b.Str()
	case ValueTypeList:
		la, lb := a.List(), b.List()
		if la.Len() != lb.Len() {
			return false
		}
		for i := 0; i < la.Len(); i++ {
			if !Equal(la.Get(i), lb.Get(i)) {
				return false
			}
		}
		return true
	case ValueTypeMap:
		ma, mb := a.Map(), b.Map()
		if ma.Len() != mb.Len() {
			return false
		}
		for _, k := range ma.Keys() {
			va, _ := ma.Get(k)
			vb, ok := mb.Get(k)
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	case ValueTypeFunction:
		return a.Function() == b.Function()
	case ValueTypeBuiltin:
		return a.Builtin() == b.Builtin()
	}
	return false
}

func isNaN(v *Value) bool {
	return v.Type == ValueTypeFloat && math.IsNaN(v.Float64())
}

func toFloat(v *Value) float64 {
	if v.Type == ValueTypeFloat {
		return v.Float64()
	}
	f, _ := new(big.Float).SetInt(v.Int()).Float64()
	return f
}

// compareNumbers returns -1, 0 or 1. Ints are compared exactly, mixed
// operands are compared as floats.
func compareNumbers(a, b *Value) int {
	if a.Type == ValueTypeInt && b.Type == ValueTypeInt {
		return a.Int().Cmp(b.Int())
	}
	fa, fb := toFloat(a), toFloat(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	}
	return 0
}
