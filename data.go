package hive

import (
	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
)

// quoteNode converts an AST into data. Symbols become Symbol values and
// expressions become lists.
func quoteNode(n *ast.Node) *Value {
	switch n.Type() {
	case ast.NodeTypeInt:
		return NewIntValue(n.Int())
	case ast.NodeTypeFloat:
		return NewFloatValue(n.Float())
	case ast.NodeTypeString:
		return NewStringValue(n.Str())
	case ast.NodeTypeBool:
		return NewBoolValue(n.Bool())
	case ast.NodeTypeNull:
		return Null
	case ast.NodeTypeSymbol:
		return NewSymbolValue(n.Name())
	case ast.NodeTypeKeyword:
		return NewKeywordValue(n.Name())
	case ast.NodeTypeMap:
		m := NewMap()
		children := n.List()
		for i := 0; i+1 < len(children); i += 2 {
			m = m.Set(children[i].Name(), quoteNode(children[i+1]))
		}
		return NewMapValue(m)
	}
	children := n.List()
	items := make([]*Value, len(children))
	for i := range children {
		items[i] = quoteNode(children[i])
	}
	return NewListValue(items...)
}

// dataNode converts data back into code. A list headed by a symbol becomes
// an expression, any other list becomes a list literal.
func dataNode(v *Value, pos ast.Pos) (*ast.Node, error) {
	switch v.Type {
	case ValueTypeNull:
		return ast.NewNull(pos), nil
	case ValueTypeBool:
		return ast.NewBool(pos, v.Bool()), nil
	case ValueTypeInt:
		return ast.NewInt(pos, v.Int()), nil
	case ValueTypeFloat:
		return ast.NewFloat(pos, v.Float64()), nil
	case ValueTypeString:
		return ast.NewString(pos, v.Str()), nil
	case ValueTypeKeyword:
		return ast.NewKeyword(pos, v.Str()), nil
	case ValueTypeSymbol:
		return ast.NewSymbol(pos, v.Str()), nil
	case ValueTypeList:
		items := v.Items()
		children := make([]*ast.Node, len(items))
		for i := range items {
			child, err := dataNode(items[i], pos)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		if len(items) > 0 && items[0].Type == ValueTypeSymbol {
			return ast.NewExpression(pos, children...), nil
		}
		return ast.NewList(pos, children...), nil
	case ValueTypeMap:
		m := v.Map()
		children := []*ast.Node{}
		for _, k := range m.Keys() {
			item, _ := m.Get(k)
			child, err := dataNode(item, pos)
			if err != nil {
				return nil, err
			}
			children = append(children, ast.NewKeyword(pos, k), child)
		}
		return ast.NewMap(pos, children...), nil
	}
	return nil, diag.Errorf(diag.Type, pos.Line, pos.Col, "eval: cannot convert %s to code", typeName(v))
}
