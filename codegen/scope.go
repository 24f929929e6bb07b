package codegen

import (
	"strings"

	"github.com/xiam/hive/ast"
)

type bindingKind uint8

const (
	bindGlobal bindingKind = iota
	bindDef
	bindParam
	bindLocal
)

// binding is what a HiveSpeak name resolves to at a point of the program.
// Bindings made by let, loop, match and catch never change after they are
// made, which lets closures copy them.
type binding struct {
	target   string
	kind     bindingKind
	fn       *fnCtx
	declared bool

	// pending is set while a hoisted def has not run on every path that
	// reaches the current point; depth is the branch depth it was hoisted
	// at. partial means it ran on some paths only.
	pending bool
	partial bool
	depth   int

	// iter marks bindings that live in a loop body, fresh on every
	// iteration.
	iter bool

	// captured is set once a closure copied the binding's value.
	captured bool

	// module lists the exported names when the binding was made by mod.
	module []string
}

func (b *binding) stable() bool {
	return b.kind == bindParam || b.kind == bindLocal
}

type scope struct {
	parent *scope
	names  map[string]*binding
	order  []string
	iter   bool
}

func newScope(parent *scope) *scope {
	s := &scope{parent: parent, names: map[string]*binding{}}
	if parent != nil {
		s.iter = parent.iter
	}
	return s
}

func (s *scope) set(name string, b *binding) {
	if _, ok := s.names[name]; !ok {
		s.order = append(s.order, name)
	}
	s.names[name] = b
}

func (s *scope) find(name string) *binding {
	b, _ := s.where(name)
	return b
}

// where returns the binding name resolves to and the scope holding it.
func (s *scope) where(name string) (*binding, *scope) {
	for ; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b, s
		}
	}
	return nil, nil
}

// exports returns the names a mod body makes public, in definition order.
func (s *scope) exports() []string {
	names := []string{}
	for _, name := range s.order {
		if !strings.HasPrefix(name, "_") {
			names = append(names, name)
		}
	}
	return names
}

// fnCtx tracks the bindings of enclosing functions a function body refers
// to.
type fnCtx struct {
	parent   *fnCtx
	captures []string
	captured map[string]bool

	// self is the binding a (def (name ...) ...) function is assigned to.
	self *binding
}

func newFnCtx(parent *fnCtx, self *binding) *fnCtx {
	return &fnCtx{parent: parent, captured: map[string]bool{}, self: self}
}

func (f *fnCtx) capture(target string) {
	if f.captured[target] {
		return
	}
	f.captured[target] = true
	f.captures = append(f.captures, target)
}

type loopCtx struct {
	result   string
	carriers []string
}

// defCollector finds the names a body binds in its own scope, so that they
// can be declared before any of the body runs. It does not descend into
// forms that open a new scope.
type defCollector struct {
	c     *compiler
	names []string
	seen  map[string]bool
	mods  map[string][]string
}

func collectDefs(c *compiler, body []*ast.Node) []string {
	d := &defCollector{c: c, seen: map[string]bool{}, mods: map[string][]string{}}
	for _, n := range body {
		d.walk(n)
	}
	return d.names
}

func (d *defCollector) add(name string) {
	if d.seen[name] {
		return
	}
	d.seen[name] = true
	d.names = append(d.names, name)
}

func (d *defCollector) moduleNames(name string) []string {
	if names, ok := d.mods[name]; ok {
		return names
	}
	if b := d.c.scope.find(name); b != nil {
		return b.module
	}
	return nil
}

func (d *defCollector) walk(n *ast.Node) {
	switch n.Type() {
	case ast.NodeTypeList, ast.NodeTypeMap:
		for _, child := range n.List() {
			d.walk(child)
		}
		return
	case ast.NodeTypeExpression:
	default:
		return
	}

	args := n.List()
	switch n.Head() {
	case "def":
		if len(args) < 2 {
			return
		}
		switch target := args[1]; target.Type() {
		case ast.NodeTypeSymbol:
			for _, v := range args[2:] {
				d.walk(v)
			}
			d.add(target.Name())
		case ast.NodeTypeExpression:
			if sig := target.List(); len(sig) > 0 && sig[0].Type() == ast.NodeTypeSymbol {
				d.add(sig[0].Name())
			}
		}
		return

	case "mod":
		if len(args) < 2 || args[1].Type() != ast.NodeTypeSymbol {
			return
		}
		inner := newScope(nil)
		for _, name := range collectDefs(d.c, args[2:]) {
			inner.set(name, nil)
		}
		d.mods[args[1].Name()] = inner.exports()
		d.add(args[1].Name())
		return

	case "use":
		if len(args) < 2 {
			return
		}
		names := args[2:]
		if len(names) == 1 && names[0].Type() == ast.NodeTypeList {
			names = names[0].List()
		}
		if len(names) == 0 && args[1].Type() == ast.NodeTypeSymbol {
			for _, name := range d.moduleNames(args[1].Name()) {
				d.add(name)
			}
			return
		}
		for _, name := range names {
			if name.Type() == ast.NodeTypeSymbol {
				d.add(name.Name())
			}
		}
		return

	case "match":
		if len(args) > 1 {
			d.walk(args[1])
		}
		return

	case "try":
		for _, arg := range args[1:] {
			if !arg.IsForm("catch") {
				d.walk(arg)
			}
		}
		return

	case "fn", "let", "loop", "quote", "macro":
		return
	}

	for _, arg := range args {
		d.walk(arg)
	}
}
