package macro

import (
	"github.com/xiam/hive/ast"
)

type instance struct {
	m     *Macro
	call  *ast.Node
	args  map[string]*ast.Node
	rest  []*ast.Node
	quasi bool
}

// instantiate builds the expansion of call, a form headed by m.Name.
func instantiate(m *Macro, call *ast.Node) (*ast.Node, error) {
	args := call.List()[1:]
	if len(args) < len(m.Params) || (m.Rest == "" && len(args) > len(m.Params)) {
		want := len(m.Params)
		if m.Rest != "" {
			return nil, errorAt(call, "macro %q expects at least %d arguments, got %d", m.Name, want, len(args))
		}
		return nil, errorAt(call, "macro %q expects %d arguments, got %d", m.Name, want, len(args))
	}

	in := &instance{
		m:    m,
		call: call,
		args: map[string]*ast.Node{},
	}
	for i, name := range m.Params {
		in.args[name] = args[i]
	}
	if m.Rest != "" {
		in.rest = args[len(m.Params):]
	}

	body := m.Template
	if body.IsForm("quote") && body.Len() == 2 {
		body = body.List()[1]
		in.quasi = true
	}

	nodes, err := in.subst(body)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, errorAt(call, "macro %q must expand to exactly one expression, got %d", m.Name, len(nodes))
	}
	return nodes[0], nil
}

func (in *instance) restList() *ast.Node {
	return ast.NewList(in.call.Pos(), in.rest...)
}

func (in *instance) isRest(name string) bool {
	return in.m.Rest != "" && in.m.Rest == name
}

// lookup returns the argument bound to a parameter symbol.
func (in *instance) lookup(n *ast.Node) (*ast.Node, bool) {
	if n.Type() != ast.NodeTypeSymbol {
		return nil, false
	}
	if in.isRest(n.Name()) {
		return in.restList(), true
	}
	arg, ok := in.args[n.Name()]
	return arg, ok
}

func (in *instance) subst(n *ast.Node) ([]*ast.Node, error) {
	switch n.Type() {
	case ast.NodeTypeSymbol:
		if !in.quasi {
			if arg, ok := in.lookup(n); ok {
				return []*ast.Node{arg}, nil
			}
		}
		return []*ast.Node{n}, nil

	case ast.NodeTypeList, ast.NodeTypeMap, ast.NodeTypeExpression:
		// handled below

	default:
		return []*ast.Node{n}, nil
	}

	if n.Len() == 2 {
		switch n.Head() {
		case "unquote":
			arg, ok := in.lookup(n.List()[1])
			if !ok {
				return nil, errorAt(n, "macro %q: unquote of %s, which is not a parameter", in.m.Name, ast.Encode(n.List()[1]))
			}
			return []*ast.Node{arg}, nil

		case "splice":
			target := n.List()[1]
			if target.Type() == ast.NodeTypeSymbol && in.isRest(target.Name()) {
				return in.rest, nil
			}
			arg, ok := in.lookup(target)
			if !ok {
				return nil, errorAt(n, "macro %q: splice of %s, which is not a parameter", in.m.Name, ast.Encode(target))
			}
			if arg.Type() != ast.NodeTypeList && arg.Type() != ast.NodeTypeExpression {
				return nil, errorAt(n, "macro %q: cannot splice %s argument", in.m.Name, arg.Type())
			}
			return arg.List(), nil
		}
	}

	children := []*ast.Node{}
	for _, child := range n.List() {
		nodes, err := in.subst(child)
		if err != nil {
			return nil, err
		}
		children = append(children, nodes...)
	}

	if n.Type() == ast.NodeTypeMap {
		if len(children)%2 != 0 {
			return nil, errorAt(n, "macro %q: map template expanded to an odd number of entries", in.m.Name)
		}
		for i := 0; i < len(children); i += 2 {
			if children[i].Type() != ast.NodeTypeKeyword {
				return nil, errorAt(children[i], "macro %q: map keys must be keywords", in.m.Name)
			}
		}
	}

	return []*ast.Node{ast.NewVector(n.Type(), n.Pos(), children...)}, nil
}
