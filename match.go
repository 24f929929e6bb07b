package hive

import (
	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
)

// evalMatch tries each pattern in order and evaluates the result paired
// with the first one that matches. Bindings made by a pattern are only
// visible in its result.
func (in *Interpreter) evalMatch(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return nil, formError(n, "match expects a value")
	}
	clauses := args[1:]
	if len(clauses)%2 != 0 {
		return nil, formError(n, "match clauses must come in pattern/result pairs")
	}

	v, err := in.eval(args[0], env, false)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(clauses); i += 2 {
		scope := NewEnv(env)
		ok, err := matchPattern(clauses[i], v, scope)
		if err != nil {
			return nil, err
		}
		if ok {
			return in.eval(clauses[i+1], scope, tail)
		}
	}
	return nil, errorAt(n, diag.Runtime, "no pattern matched %s", Format(v))
}

func matchPattern(p *ast.Node, v *Value, scope *Env) (bool, error) {
	switch p.Type() {
	case ast.NodeTypeSymbol:
		if p.Name() != "_" {
			scope.Define(p.Name(), v)
		}
		return true, nil

	case ast.NodeTypeList:
		return matchList(p, v, scope)

	case ast.NodeTypeMap:
		if v.Type != ValueTypeMap {
			return false, nil
		}
		m := v.Map()
		children := p.List()
		for i := 0; i+1 < len(children); i += 2 {
			item, ok := m.Get(children[i].Name())
			if !ok {
				return false, nil
			}
			if ok, err := matchPattern(children[i+1], item, scope); !ok || err != nil {
				return false, err
			}
		}
		return true, nil

	case ast.NodeTypeExpression:
		if p.IsForm("quote") && p.Len() == 2 {
			return Equal(quoteNode(p.List()[1]), v), nil
		}
		return false, errorAt(p, diag.Type, "invalid pattern %s", ast.Encode(p))
	}

	return Equal(quoteNode(p), v), nil
}

func matchList(p *ast.Node, v *Value, scope *Env) (bool, error) {
	if v.Type != ValueTypeList {
		return false, nil
	}
	elems := p.List()
	var rest *ast.Node
	for i, elem := range elems {
		if elem.IsSymbol("&") {
			if i != len(elems)-2 {
				return false, errorAt(elem, diag.Type, "'&' must be followed by exactly one pattern")
			}
			elems, rest = elems[:i], elems[i+1]
			break
		}
	}

	items := v.Items()
	if len(items) < len(elems) || (rest == nil && len(items) != len(elems)) {
		return false, nil
	}
	for i, elem := range elems {
		if ok, err := matchPattern(elem, items[i], scope); !ok || err != nil {
			return false, err
		}
	}
	if rest != nil {
		return matchPattern(rest, NewListValue(items[len(elems):]...), scope)
	}
	return true, nil
}
