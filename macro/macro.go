// Package macro implements compile-time macro expansion over the AST.
//
// A macro is defined at the top level of a unit (or at the top level of a
// mod body) with
//
//	(macro (name param... & rest) template)
//
// and every later expression headed by name is replaced by an instance of
// template. Substitution is syntactic: parameters are bound to the argument
// ASTs, not to their values. When the template is quoted, '(...), only the
// ~param (unquote) and ~@param (splice) sites are replaced; an unquoted
// template also replaces bare parameter symbols.
//
// Expansion is not hygienic. Symbols introduced by a template are resolved
// where the expansion lands, so a template binding such as
//
//	(macro (swap-add a b) '(let [tmp ~a] (+ tmp ~b)))
//
// captures a caller variable named tmp passed as b. Choose template-local
// names that cannot collide with call sites.
package macro

import (
	"sort"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
)

// Macro is a registered macro definition.
type Macro struct {
	Name     string
	Params   []string
	Rest     string
	Template *ast.Node
	Pos      ast.Pos
}

// Table maps macro names to their definitions. Macro names live in their
// own namespace, separated from ordinary bindings.
type Table struct {
	m map[string]*Macro
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{m: map[string]*Macro{}}
}

// Define registers m, replacing a previous macro with the same name.
func (t *Table) Define(m *Macro) {
	t.m[m.Name] = m
}

// Lookup returns the macro registered under name.
func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.m[name]
	return m, ok
}

// Has reports whether name is a macro.
func (t *Table) Has(name string) bool {
	_, ok := t.m[name]
	return ok
}

// Names returns the registered macro names in lexical order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.m))
	for name := range t.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func errorAt(n *ast.Node, format string, args ...interface{}) error {
	pos := n.Pos()
	return diag.Errorf(diag.Macro, pos.Line, pos.Col, format, args...)
}

// Parse reads a (macro (name params...) template) form.
func Parse(form *ast.Node) (*Macro, error) {
	args := form.List()[1:]
	if len(args) != 2 {
		return nil, errorAt(form, "macro expects a signature and a template, got %d arguments", len(args))
	}

	sig := args[0]
	if sig.Type() != ast.NodeTypeExpression || sig.Len() == 0 || sig.List()[0].Type() != ast.NodeTypeSymbol {
		return nil, errorAt(sig, "macro signature must look like (name param...)")
	}

	m := &Macro{
		Name:     sig.List()[0].Name(),
		Params:   []string{},
		Template: args[1],
		Pos:      form.Pos(),
	}

	params := sig.List()[1:]
	for i := 0; i < len(params); i++ {
		p := params[i]
		if p.Type() != ast.NodeTypeSymbol {
			return nil, errorAt(p, "macro parameters must be symbols, got %s", p.Type())
		}
		if p.Name() == "&" {
			if i != len(params)-2 || params[i+1].Type() != ast.NodeTypeSymbol {
				return nil, errorAt(p, "'&' must be followed by exactly one parameter")
			}
			m.Rest = params[i+1].Name()
			break
		}
		m.Params = append(m.Params, p.Name())
	}

	return m, nil
}
