package macro

import (
	"io"
	"log"

	"github.com/xiam/hive/ast"
)

// DefaultMaxDepth is the nesting limit for macro instantiation.
const DefaultMaxDepth = 256

// Option configures an Expander.
type Option func(*Expander)

// WithMaxDepth sets how deeply macro instantiations may nest.
func WithMaxDepth(depth int) Option {
	return func(x *Expander) {
		if depth > 0 {
			x.maxDepth = depth
		}
	}
}

// WithLogger sets a logger for definition and expansion traces.
func WithLogger(logger *log.Logger) Option {
	return func(x *Expander) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// Expander rewrites macro calls into their expansions.
type Expander struct {
	table    *Table
	maxDepth int
	logger   *log.Logger
}

// NewExpander creates an expander that registers and looks up macros in t.
func NewExpander(t *Table, opts ...Option) *Expander {
	x := &Expander{
		table:    t,
		maxDepth: DefaultMaxDepth,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Table returns the macro table used by the expander.
func (x *Expander) Table() *Table {
	return x.table
}

// Expand expands a whole program using a fresh macro table.
func Expand(forest []*ast.Node) ([]*ast.Node, error) {
	return NewExpander(NewTable()).ExpandAll(forest)
}

// ExpandAll expands a sequence of top-level forms. Macro definitions are
// registered and dropped from the output.
func (x *Expander) ExpandAll(forest []*ast.Node) ([]*ast.Node, error) {
	out := make([]*ast.Node, 0, len(forest))
	for _, form := range forest {
		expanded, err := x.ExpandForm(form)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// ExpandForm expands a single top-level form. It returns no nodes when form
// is a macro definition.
func (x *Expander) ExpandForm(form *ast.Node) ([]*ast.Node, error) {
	if form.IsForm("macro") {
		m, err := Parse(form)
		if err != nil {
			return nil, err
		}
		x.table.Define(m)
		x.logger.Printf("macro: defined %s (%d params, rest=%q)", m.Name, len(m.Params), m.Rest)
		return nil, nil
	}

	node, err := x.expand(form, 0)
	if err != nil {
		return nil, err
	}
	return []*ast.Node{node}, nil
}

// Expand expands a form that is not at the top level, where macro
// definitions are not allowed.
func (x *Expander) Expand(n *ast.Node) (*ast.Node, error) {
	return x.expand(n, 0)
}

func (x *Expander) expand(n *ast.Node, depth int) (*ast.Node, error) {
	switch n.Type() {
	case ast.NodeTypeSymbol:
		if x.table.Has(n.Name()) {
			return nil, errorAt(n, "macro %q used as a value", n.Name())
		}
		return n, nil

	case ast.NodeTypeList, ast.NodeTypeMap:
		return x.expandChildren(n, n.List(), depth)

	case ast.NodeTypeExpression:
		// handled below

	default:
		return n, nil
	}

	switch head := n.Head(); head {
	case "quote":
		return n, nil

	case "macro":
		return nil, errorAt(n, "macro definitions are only allowed at the top level")

	case "mod":
		return x.expandModule(n, depth)

	default:
		if m, ok := x.table.Lookup(head); ok {
			if depth+1 > x.maxDepth {
				return nil, errorAt(n, "macro expansion of %q exceeded maximum depth %d", head, x.maxDepth)
			}
			expanded, err := instantiate(m, n)
			if err != nil {
				return nil, err
			}
			return x.expand(expanded, depth+1)
		}
	}

	return x.expandChildren(n, n.List(), depth)
}

func (x *Expander) expandChildren(n *ast.Node, children []*ast.Node, depth int) (*ast.Node, error) {
	out := make([]*ast.Node, len(children))
	changed := false
	for i, child := range children {
		expanded, err := x.expand(child, depth)
		if err != nil {
			return nil, err
		}
		if expanded != child {
			changed = true
		}
		out[i] = expanded
	}
	if !changed {
		return n, nil
	}
	return ast.NewVector(n.Type(), n.Pos(), out...), nil
}

// expandModule expands (mod name body...), where the body is a top level
// of its own and may define macros.
func (x *Expander) expandModule(n *ast.Node, depth int) (*ast.Node, error) {
	children := n.List()
	if len(children) < 2 {
		return n, nil
	}
	out := []*ast.Node{children[0], children[1]}
	for _, form := range children[2:] {
		if form.IsForm("macro") {
			expanded, err := x.ExpandForm(form)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		expanded, err := x.expand(form, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return ast.NewExpression(n.Pos(), out...), nil
}
