package codegen

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"github.com/xiam/hive"
	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type dialect interface {
	intLit(i *big.Int) string
	floatLit(f float64) string
	boolLit(b bool) string
	nullLit() string
	listLit(items []string) string
	mapLit(keys, values []string) string
	ternary(cond, a, b string) string
	truthy(e string) string
	falsy(e string) string
	notNull(e string) string
	modGet(mod, name string) string

	runtime() string
	program(w *writer, consts, body []stmt)
}

// compiler lowers an expanded forest into statements. Every HiveSpeak
// expression becomes a rendered expression plus the statements that must
// run before it, in source order.
type compiler struct {
	target   Target
	d        dialect
	registry *hive.Registry
	names    nameMangler

	root  *scope
	scope *scope
	fn    *fnCtx
	block *[]stmt

	// frames holds, for every branch being compiled, the hoisted defs
	// that ran on the way to the current point.
	frames []map[*binding]bool

	consts    []stmt
	constants map[string]string
}

func newCompiler(target Target, d dialect) *compiler {
	root := newScope(nil)
	return &compiler{
		target:    target,
		d:         d,
		registry:  hive.NewRegistry(),
		root:      root,
		scope:     root,
		constants: map[string]string{},
	}
}

func (c *compiler) errorf(n *ast.Node, format string, args ...interface{}) error {
	pos := n.Pos()
	return diag.Errorf(diag.Codegen, pos.Line, pos.Col, format, args...)
}

func (c *compiler) unsupported(n *ast.Node, what string) error {
	pos := n.Pos()
	return diag.Wrap(ErrUnsupported, diag.Codegen, pos.Line, pos.Col, "%s is not supported by the %s generator", what, c.target)
}

func (c *compiler) program(forest []*ast.Node) ([]stmt, error) {
	var body []stmt
	c.block = &body
	c.hoist(forest)
	for _, n := range forest {
		if err := c.discard(n); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func (c *compiler) emit(s stmt) {
	*c.block = append(*c.block, s)
}

// collect runs fn with a fresh statement list and returns what it emitted.
func (c *compiler) collect(fn func() error) ([]stmt, error) {
	saved := c.block
	var out []stmt
	c.block = &out
	err := fn()
	c.block = saved
	return out, err
}

// branch is collect for code that runs on some paths only.
func (c *compiler) branch(fn func() error) ([]stmt, map[*binding]bool, error) {
	c.frames = append(c.frames, map[*binding]bool{})
	out, err := c.collect(fn)
	frame := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return out, frame, err
}

func (c *compiler) insert(at int, stmts []stmt) {
	block := *c.block
	*c.block = append(block[:at], append(stmts, block[at:]...)...)
}

func (c *compiler) null() expr {
	return expr{c.d.nullLit(), true}
}

// constant returns the name of a program level constant holding code.
func (c *compiler) constant(prefix, code string) string {
	if name, ok := c.constants[code]; ok {
		return name
	}
	name := c.names.temp(prefix)
	c.constants[code] = name
	c.consts = append(c.consts, &assignStmt{target: name, value: code, decl: true})
	return name
}

func (c *compiler) keyword(name string) string {
	return c.constant("k", call("rt_kw", quote(name)))
}

// stable returns e, or a temporary holding its value when evaluating e
// later could observe different state.
func (c *compiler) stable(e expr) expr {
	if e.pure {
		return e
	}
	t := c.names.temp("t")
	c.emit(&assignStmt{target: t, value: e.code, decl: true})
	return expr{t, true}
}

func (c *compiler) assign(b *binding, value string) {
	c.emit(&assignStmt{target: b.target, value: value, decl: !b.declared})
	b.declared = true
	c.settle(b)
}

// settle records that the def of b ran.
func (c *compiler) settle(b *binding) {
	if !b.pending {
		return
	}
	if len(c.frames) == b.depth {
		b.pending, b.partial = false, false
		return
	}
	b.partial = true
	c.frames[len(c.frames)-1][b] = true
}

// assigned reports whether the def of b ran on every path to this point.
func (c *compiler) assigned(b *binding) bool {
	if !b.pending {
		return true
	}
	if b.depth > len(c.frames) {
		return false
	}
	for _, frame := range c.frames[b.depth:] {
		if frame[b] {
			return true
		}
	}
	return false
}

// lookup returns the binding a reference to name sees here. A hoisted def
// that did not run yet is skipped for the binding it shadows.
func (c *compiler) lookup(n *ast.Node, name string) (*binding, error) {
	s := c.scope
	for {
		b, at := s.where(name)
		if b == nil {
			return nil, nil
		}
		if b.fn == c.fn && !c.assigned(b) {
			if b.partial {
				return nil, c.errorf(n, "%s is read where its def may not have run", name)
			}
			s = at.parent
			continue
		}
		return b, c.capture(n, name, b)
	}
}

// capture marks b as copied by the functions between the reference and
// the function owning b. Python closures see later assignments to a
// variable, so values the evaluator keeps per scope instance are handed to
// a factory instead.
func (c *compiler) capture(n *ast.Node, name string, b *binding) error {
	if b.kind != bindLocal && !(b.kind == bindDef && b.iter) {
		return nil
	}
	for f := c.fn; f != nil && f != b.fn; f = f.parent {
		if f.self == b {
			// A function reaches itself through its own definition.
			return nil
		}
	}
	for f := c.fn; f != nil && f != b.fn; f = f.parent {
		if c.target == Python && !c.assigned(b) {
			return c.errorf(n, "%s is read by a function made before its def in a loop body, which the %s generator cannot express", name, c.target)
		}
		b.captured = true
		f.capture(b.target)
	}
	return nil
}

// reassign fails when def would change a value closures already copied.
func (c *compiler) reassign(n *ast.Node, name string, b *binding) error {
	if b.captured && c.target == Python {
		return c.errorf(n, "%s is redefined after a function captured it, which the %s generator cannot express", name, c.target)
	}
	return nil
}

// define returns the binding def would create or replace in the current
// scope.
func (c *compiler) define(name string) *binding {
	if b, ok := c.scope.names[name]; ok {
		if b.stable() {
			b.kind = bindDef
		}
		return b
	}
	b := &binding{kind: bindDef, fn: c.fn, iter: c.scope.iter}
	if c.scope == c.root {
		b.kind = bindGlobal
		b.target = Mangle(name)
	} else {
		b.target = c.names.local(name)
	}
	c.scope.set(name, b)
	return b
}

// bind makes a new binding that shadows name in the current scope.
func (c *compiler) bind(name string, kind bindingKind) *binding {
	b := &binding{target: c.names.local(name), kind: kind, fn: c.fn, iter: c.scope.iter}
	c.scope.set(name, b)
	return b
}

// hoist declares the names body defines in the current scope, so that
// functions in the body can refer to each other regardless of order.
func (c *compiler) hoist(body []*ast.Node) {
	for _, name := range collectDefs(c, body) {
		b := c.define(name)
		if b.declared {
			continue
		}
		b.declared = true
		b.pending, b.depth = true, len(c.frames)
		decl := &declStmt{target: b.target}
		if b.kind == bindGlobal {
			if _, ok := c.registry.Lookup(name); ok {
				decl.builtin = name
			}
		}
		c.emit(decl)
	}
}

func (c *compiler) discard(n *ast.Node) error {
	e, err := c.expr(n)
	if err != nil {
		return err
	}
	if !e.pure && !identifier.MatchString(e.code) {
		c.emit(&exprStmt{e.code})
	}
	return nil
}

func (c *compiler) expr(n *ast.Node) (expr, error) {
	switch n.Type() {
	case ast.NodeTypeInt:
		return expr{c.d.intLit(n.Int()), true}, nil
	case ast.NodeTypeFloat:
		return expr{c.d.floatLit(n.Float()), true}, nil
	case ast.NodeTypeString:
		return expr{quote(n.Str()), true}, nil
	case ast.NodeTypeBool:
		return expr{c.d.boolLit(n.Bool()), true}, nil
	case ast.NodeTypeNull:
		return c.null(), nil
	case ast.NodeTypeKeyword:
		return expr{c.keyword(n.Name()), true}, nil
	case ast.NodeTypeSymbol:
		return c.symbol(n)
	case ast.NodeTypeList:
		items, err := c.exprs(n.List())
		if err != nil {
			return expr{}, err
		}
		return expr{c.d.listLit(codes(items)), allPure(items)}, nil
	case ast.NodeTypeMap:
		children := n.List()
		keys, values := []string{}, []*ast.Node{}
		for i := 0; i+1 < len(children); i += 2 {
			keys = append(keys, quote(children[i].Name()))
			values = append(values, children[i+1])
		}
		items, err := c.exprs(values)
		if err != nil {
			return expr{}, err
		}
		return expr{c.d.mapLit(keys, codes(items)), allPure(items)}, nil
	case ast.NodeTypeExpression:
		return c.expression(n)
	}
	return expr{}, c.errorf(n, "unexpected %s node", n.Type())
}

// exprs compiles nodes left to right. When a node needs statements, the
// values computed before it are moved into temporaries ahead of those
// statements.
func (c *compiler) exprs(nodes []*ast.Node) ([]expr, error) {
	out := make([]expr, 0, len(nodes))
	for _, n := range nodes {
		mark := len(*c.block)
		e, err := c.expr(n)
		if err != nil {
			return nil, err
		}
		if len(*c.block) > mark {
			var spills []stmt
			for i := range out {
				if out[i].pure {
					continue
				}
				t := c.names.temp("t")
				spills = append(spills, &assignStmt{target: t, value: out[i].code, decl: true})
				out[i] = expr{t, true}
			}
			if len(spills) > 0 {
				c.insert(mark, spills)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *compiler) symbol(n *ast.Node) (expr, error) {
	name := n.Name()
	b, err := c.lookup(n, name)
	if err != nil {
		return expr{}, err
	}
	if b != nil {
		return expr{b.target, b.stable()}, nil
	}
	// No binding of name is visible here.
	if _, ok := c.registry.Lookup(name); ok {
		return expr{Mangle(name), true}, nil
	}
	pos := n.Pos()
	if hive.IsSpecialForm(name) {
		return expr{}, diag.Errorf(diag.Codegen, pos.Line, pos.Col, "special form %s cannot be used as a value", name)
	}
	return expr{}, diag.Wrap(ErrUndefined, diag.Codegen, pos.Line, pos.Col, "undefined symbol %q", name)
}

func (c *compiler) expression(n *ast.Node) (expr, error) {
	if n.Len() == 0 {
		return c.null(), nil
	}
	switch head := n.Head(); head {
	case "def":
		return c.def(n)
	case "fn":
		return c.fnForm(n)
	case "let":
		return c.let(n, nil)
	case "if":
		return c.ifForm(n, nil)
	case "do":
		return c.body(n.List()[1:])
	case "match":
		return c.match(n, nil)
	case "loop":
		return c.loop(n)
	case "recur":
		return expr{}, c.recur(n, nil)
	case "quote":
		if n.Len() != 2 {
			return expr{}, c.errorf(n, "quote expects exactly one argument")
		}
		return expr{c.quoted(n.List()[1]), true}, nil
	case "eval":
		return expr{}, c.unsupported(n, "eval")
	case "try":
		return c.try(n)
	case "throw":
		return c.throw(n)
	case "and":
		return c.logic(n, true)
	case "or":
		return c.logic(n, false)
	case "|>":
		return c.pipe(n)
	case "mod":
		return c.mod(n)
	case "use":
		return c.use(n)
	case "macro", "unquote", "splice":
		return expr{}, c.errorf(n, "%s must be expanded before code generation", head)
	}

	items, err := c.exprs(n.List())
	if err != nil {
		return expr{}, err
	}
	return expr{call(items[0].code, codes(items[1:])...), false}, nil
}

func params(nodes []*ast.Node) ([]string, string, error) {
	names := []string{}
	for i := 0; i < len(nodes); i++ {
		p := nodes[i]
		if p.Type() != ast.NodeTypeSymbol {
			pos := p.Pos()
			return nil, "", diag.Errorf(diag.Codegen, pos.Line, pos.Col, "parameters must be symbols, got %s", p.Type())
		}
		if p.Name() == "&" {
			if i != len(nodes)-2 || nodes[i+1].Type() != ast.NodeTypeSymbol {
				pos := p.Pos()
				return nil, "", diag.Errorf(diag.Codegen, pos.Line, pos.Col, "'&' must be followed by exactly one parameter")
			}
			return names, nodes[i+1].Name(), nil
		}
		names = append(names, p.Name())
	}
	return names, "", nil
}

func (c *compiler) bindingPairs(form string, n *ast.Node) ([]*ast.Node, error) {
	if n.Type() != ast.NodeTypeList {
		return nil, c.errorf(n, "%s expects a binding vector", form)
	}
	pairs := n.List()
	if len(pairs)%2 != 0 {
		return nil, c.errorf(n, "%s bindings must come in name/value pairs", form)
	}
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i].Type() != ast.NodeTypeSymbol {
			return nil, c.errorf(pairs[i], "%s binding names must be symbols, got %s", form, pairs[i].Type())
		}
	}
	return pairs, nil
}

func (c *compiler) def(n *ast.Node) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return expr{}, c.errorf(n, "def expects a name and a value")
	}
	switch target := args[0]; target.Type() {
	case ast.NodeTypeSymbol:
		if len(args) != 2 {
			return expr{}, c.errorf(n, "def expects a name and a value")
		}
		v, err := c.expr(args[1])
		if err != nil {
			return expr{}, err
		}
		b := c.define(target.Name())
		if err := c.reassign(target, target.Name(), b); err != nil {
			return expr{}, err
		}
		c.assign(b, v.code)
		return expr{b.target, false}, nil

	case ast.NodeTypeExpression:
		sig := target.List()
		if len(sig) == 0 || sig[0].Type() != ast.NodeTypeSymbol {
			return expr{}, c.errorf(target, "def signature must look like (name param...)")
		}
		b := c.define(sig[0].Name())
		if err := c.reassign(sig[0], sig[0].Name(), b); err != nil {
			return expr{}, err
		}
		decl := !b.declared
		b.declared = true
		if err := c.function(b.target, decl, sig[0].Name(), b, sig[1:], args[1:]); err != nil {
			return expr{}, err
		}
		c.settle(b)
		return expr{b.target, false}, nil
	}
	return expr{}, c.errorf(args[0], "def expects a symbol or a signature, got %s", args[0].Type())
}

func (c *compiler) fnForm(n *ast.Node) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 || args[0].Type() != ast.NodeTypeList {
		return expr{}, c.errorf(n, "fn expects a parameter vector")
	}
	t := c.names.temp("f")
	if err := c.function(t, true, "", nil, args[0].List(), args[1:]); err != nil {
		return expr{}, err
	}
	return expr{t, true}, nil
}

func (c *compiler) function(target string, decl bool, name string, self *binding, paramNodes, body []*ast.Node) error {
	names, rest, err := params(paramNodes)
	if err != nil {
		return err
	}

	fs := &funcStmt{target: target, decl: decl, name: name}
	fn := newFnCtx(c.fn, self)
	savedFn, savedScope := c.fn, c.scope
	c.fn, c.scope = fn, newScope(savedScope)
	c.scope.iter = false

	for _, p := range names {
		b := c.bind(p, bindParam)
		b.declared = true
		fs.params = append(fs.params, b.target)
	}
	if rest != "" {
		b := c.bind(rest, bindParam)
		b.declared = true
		fs.rest = b.target
	}

	fs.body, err = c.collect(func() error {
		c.hoist(body)
		e, err := c.body(body)
		if err != nil {
			return err
		}
		c.emit(&returnStmt{e.code})
		return nil
	})
	c.fn, c.scope = savedFn, savedScope
	if err != nil {
		return err
	}

	if len(fn.captures) > 0 {
		fs.captures = fn.captures
		fs.factory = c.names.temp("mk")
	}
	c.emit(fs)
	return nil
}

// body compiles a sequence and returns the value of its last expression.
func (c *compiler) body(nodes []*ast.Node) (expr, error) {
	if len(nodes) == 0 {
		return c.null(), nil
	}
	for _, n := range nodes[:len(nodes)-1] {
		if err := c.discard(n); err != nil {
			return expr{}, err
		}
	}
	return c.expr(nodes[len(nodes)-1])
}

func (c *compiler) let(n *ast.Node, lp *loopCtx) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return expr{}, c.errorf(n, "let expects a binding vector")
	}
	pairs, err := c.bindingPairs("let", args[0])
	if err != nil {
		return expr{}, err
	}

	saved := c.scope
	c.scope = newScope(saved)
	defer func() { c.scope = saved }()

	for i := 0; i < len(pairs); i += 2 {
		v, err := c.expr(pairs[i+1])
		if err != nil {
			return expr{}, err
		}
		if i > 0 {
			c.scope = newScope(c.scope)
		}
		c.assign(c.bind(pairs[i].Name(), bindLocal), v.code)
	}
	c.hoist(args[1:])
	if lp != nil {
		return expr{}, c.tailBody(args[1:], lp)
	}
	return c.body(args[1:])
}

func (c *compiler) ifForm(n *ast.Node, lp *loopCtx) (expr, error) {
	args := n.List()[1:]
	if len(args) < 2 || len(args) > 3 {
		return expr{}, c.errorf(n, "if expects a condition, a branch and an optional else branch")
	}
	cond, err := c.expr(args[0])
	if err != nil {
		return expr{}, err
	}

	if lp != nil {
		then, _, err := c.branch(func() error { return c.tail(args[1], lp) })
		if err != nil {
			return expr{}, err
		}
		els, _, err := c.branch(func() error {
			if len(args) == 3 {
				return c.tail(args[2], lp)
			}
			return c.finish(c.null(), lp)
		})
		if err != nil {
			return expr{}, err
		}
		c.emit(&ifStmt{cond: c.d.truthy(cond.code), then: then, els: els})
		return expr{}, nil
	}

	var thenValue, elseValue expr
	then, thenDefs, err := c.branch(func() (err error) {
		thenValue, err = c.expr(args[1])
		return err
	})
	if err != nil {
		return expr{}, err
	}
	elseValue = c.null()
	els, elseDefs, err := c.branch(func() (err error) {
		if len(args) == 3 {
			elseValue, err = c.expr(args[2])
		}
		return err
	})
	if err != nil {
		return expr{}, err
	}
	for b := range thenDefs {
		if elseDefs[b] {
			c.settle(b)
		}
	}

	if len(then) == 0 && len(els) == 0 {
		code := c.d.ternary(c.d.truthy(cond.code), thenValue.code, elseValue.code)
		return expr{code, cond.pure && thenValue.pure && elseValue.pure}, nil
	}

	t := c.names.temp("t")
	c.emit(&declStmt{target: t})
	then = append(then, &assignStmt{target: t, value: thenValue.code})
	els = append(els, &assignStmt{target: t, value: elseValue.code})
	c.emit(&ifStmt{cond: c.d.truthy(cond.code), then: then, els: els})
	return expr{t, true}, nil
}

// logic compiles and/or. The result holds the operand that decided it.
func (c *compiler) logic(n *ast.Node, and bool) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		if and {
			return expr{c.d.boolLit(true), true}, nil
		}
		return c.null(), nil
	}
	first, err := c.expr(args[0])
	if err != nil || len(args) == 1 {
		return first, err
	}

	t := c.names.temp("t")
	c.emit(&assignStmt{target: t, value: first.code, decl: true})
	for _, arg := range args[1:] {
		cond := c.d.truthy(t)
		if !and {
			cond = c.d.falsy(t)
		}
		then, _, err := c.branch(func() error {
			e, err := c.expr(arg)
			if err != nil {
				return err
			}
			c.emit(&assignStmt{target: t, value: e.code})
			return nil
		})
		if err != nil {
			return expr{}, err
		}
		c.emit(&ifStmt{cond: cond, then: then})
	}
	return expr{t, true}, nil
}

func (c *compiler) loop(n *ast.Node) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return expr{}, c.errorf(n, "loop expects a binding vector")
	}
	pairs, err := c.bindingPairs("loop", args[0])
	if err != nil {
		return expr{}, err
	}

	saved := c.scope
	c.scope = newScope(saved)
	defer func() { c.scope = saved }()

	names, inits := []string{}, []string{}
	for i := 0; i < len(pairs); i += 2 {
		v, err := c.expr(pairs[i+1])
		if err != nil {
			return expr{}, err
		}
		if i > 0 {
			c.scope = newScope(c.scope)
		}
		b := c.bind(pairs[i].Name(), bindLocal)
		c.assign(b, v.code)
		names = append(names, pairs[i].Name())
		inits = append(inits, b.target)
	}

	lp := &loopCtx{result: c.names.temp("t")}
	for _, init := range inits {
		carrier := c.names.temp("l")
		c.emit(&assignStmt{target: carrier, value: init, decl: true})
		lp.carriers = append(lp.carriers, carrier)
	}
	c.emit(&declStmt{target: lp.result})

	body, err := c.collect(func() error {
		c.scope = newScope(saved)
		c.scope.iter = true
		for i, name := range names {
			c.assign(c.bind(name, bindLocal), lp.carriers[i])
		}
		c.hoist(args[1:])
		return c.tailBody(args[1:], lp)
	})
	if err != nil {
		return expr{}, err
	}
	c.emit(&whileStmt{body: body})
	return expr{lp.result, true}, nil
}

// tail compiles n in tail position of a loop: every path ends by either
// leaving the loop with a value or starting the next iteration.
func (c *compiler) tail(n *ast.Node, lp *loopCtx) error {
	if n.Type() == ast.NodeTypeExpression {
		var err error
		switch n.Head() {
		case "if":
			_, err = c.ifForm(n, lp)
			return err
		case "do":
			return c.tailBody(n.List()[1:], lp)
		case "let":
			_, err = c.let(n, lp)
			return err
		case "match":
			_, err = c.match(n, lp)
			return err
		case "recur":
			return c.recur(n, lp)
		}
	}
	e, err := c.expr(n)
	if err != nil {
		return err
	}
	return c.finish(e, lp)
}

func (c *compiler) tailBody(nodes []*ast.Node, lp *loopCtx) error {
	if len(nodes) == 0 {
		return c.finish(c.null(), lp)
	}
	for _, n := range nodes[:len(nodes)-1] {
		if err := c.discard(n); err != nil {
			return err
		}
	}
	return c.tail(nodes[len(nodes)-1], lp)
}

func (c *compiler) finish(e expr, lp *loopCtx) error {
	c.emit(&assignStmt{target: lp.result, value: e.code})
	c.emit(&breakStmt{})
	return nil
}

func (c *compiler) recur(n *ast.Node, lp *loopCtx) error {
	if lp == nil {
		return c.errorf(n, "recur is only allowed in tail position of a loop")
	}
	args, err := c.exprs(n.List()[1:])
	if err != nil {
		return err
	}
	if len(args) != len(lp.carriers) {
		return c.errorf(n, "recur expects %d arguments, got %d", len(lp.carriers), len(args))
	}
	for i := range args {
		c.emit(&assignStmt{target: lp.carriers[i], value: args[i].code})
	}
	c.emit(&continueStmt{})
	return nil
}

// quoted renders n as data.
func (c *compiler) quoted(n *ast.Node) string {
	switch n.Type() {
	case ast.NodeTypeSymbol:
		return c.constant("s", call("rt_sym", quote(n.Name())))
	case ast.NodeTypeKeyword:
		return c.keyword(n.Name())
	case ast.NodeTypeInt:
		return c.d.intLit(n.Int())
	case ast.NodeTypeFloat:
		return c.d.floatLit(n.Float())
	case ast.NodeTypeString:
		return quote(n.Str())
	case ast.NodeTypeBool:
		return c.d.boolLit(n.Bool())
	case ast.NodeTypeNull:
		return c.d.nullLit()
	case ast.NodeTypeMap:
		children := n.List()
		keys, values := []string{}, []string{}
		for i := 0; i+1 < len(children); i += 2 {
			keys = append(keys, quote(children[i].Name()))
			values = append(values, c.quoted(children[i+1]))
		}
		return c.d.mapLit(keys, values)
	}
	items := []string{}
	for _, child := range n.List() {
		items = append(items, c.quoted(child))
	}
	return c.d.listLit(items)
}

func (c *compiler) try(n *ast.Node) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 || !args[len(args)-1].IsForm("catch") {
		return expr{}, c.errorf(n, "try expects a (catch name handler...) clause")
	}
	clause := args[len(args)-1].List()
	if len(clause) < 2 || clause[1].Type() != ast.NodeTypeSymbol {
		return expr{}, c.errorf(args[len(args)-1], "catch expects a name to bind the thrown value")
	}

	t := c.names.temp("t")
	c.emit(&declStmt{target: t})
	body, _, err := c.branch(func() error {
		e, err := c.body(args[:len(args)-1])
		if err != nil {
			return err
		}
		c.emit(&assignStmt{target: t, value: e.code})
		return nil
	})
	if err != nil {
		return expr{}, err
	}

	exc := c.names.temp("e")
	handler, _, err := c.branch(func() error {
		saved := c.scope
		c.scope = newScope(saved)
		defer func() { c.scope = saved }()

		c.assign(c.bind(clause[1].Name(), bindLocal), exc+".value")
		c.hoist(clause[2:])
		e, err := c.body(clause[2:])
		if err != nil {
			return err
		}
		c.emit(&assignStmt{target: t, value: e.code})
		return nil
	})
	if err != nil {
		return expr{}, err
	}
	c.emit(&tryStmt{body: body, exc: exc, handler: handler})
	return expr{t, true}, nil
}

func (c *compiler) throw(n *ast.Node) (expr, error) {
	if n.Len() != 2 {
		return expr{}, c.errorf(n, "throw expects exactly one argument")
	}
	v, err := c.expr(n.List()[1])
	if err != nil {
		return expr{}, err
	}
	pos := n.Pos()
	c.emit(&exprStmt{call("rt_throw", v.code, strconv.Itoa(pos.Line), strconv.Itoa(pos.Col))})
	return c.null(), nil
}

// pipe threads a value through each step. A call step receives the value
// as its last argument.
func (c *compiler) pipe(n *ast.Node) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return expr{}, c.errorf(n, "|> expects a value")
	}
	v, err := c.expr(args[0])
	if err != nil {
		return expr{}, err
	}
	for _, step := range args[1:] {
		v = c.stable(v)
		var items []expr
		if step.Type() == ast.NodeTypeExpression && step.Len() > 0 {
			if items, err = c.exprs(step.List()); err != nil {
				return expr{}, err
			}
		} else {
			fn, err := c.expr(step)
			if err != nil {
				return expr{}, err
			}
			items = []expr{fn}
		}
		v = expr{call(items[0].code, append(codes(items[1:]), v.code)...), false}
	}
	return v, nil
}

func (c *compiler) mod(n *ast.Node) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 || args[0].Type() != ast.NodeTypeSymbol {
		return expr{}, c.errorf(n, "mod expects a name")
	}

	saved := c.scope
	c.scope = newScope(saved)
	c.hoist(args[1:])
	for _, form := range args[1:] {
		if err := c.discard(form); err != nil {
			c.scope = saved
			return expr{}, err
		}
	}
	inner := c.scope
	c.scope = saved

	public := inner.exports()
	keys, values := make([]string, len(public)), make([]string, len(public))
	for i, name := range public {
		keys[i] = quote(name)
		values[i] = inner.names[name].target
	}

	b := c.define(args[0].Name())
	if err := c.reassign(args[0], args[0].Name(), b); err != nil {
		return expr{}, err
	}
	b.module = public
	c.assign(b, c.d.mapLit(keys, values))
	return expr{b.target, false}, nil
}

func (c *compiler) use(n *ast.Node) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return expr{}, c.errorf(n, "use expects a module")
	}
	target := args[0]
	switch target.Type() {
	case ast.NodeTypeSymbol:
	case ast.NodeTypeString:
		return expr{}, c.unsupported(target, "loading modules from files")
	default:
		return expr{}, c.errorf(target, "use expects a module name or a path, got %s", target.Type())
	}

	mb, err := c.lookup(target, target.Name())
	if err != nil {
		return expr{}, err
	}
	if mb == nil || mb.module == nil {
		return expr{}, c.errorf(target, "%s is not a module defined with mod in this unit", target.Name())
	}

	names := args[1:]
	if len(names) == 1 && names[0].Type() == ast.NodeTypeList {
		names = names[0].List()
	}
	imports := mb.module
	if len(names) > 0 {
		exported := map[string]bool{}
		for _, name := range mb.module {
			exported[name] = true
		}
		imports = nil
		for _, name := range names {
			if name.Type() != ast.NodeTypeSymbol {
				return expr{}, c.errorf(name, "use expects symbols to import, got %s", name.Type())
			}
			if !exported[name.Name()] {
				return expr{}, c.errorf(name, "%s is not defined in module %s", name.Name(), target.Name())
			}
			imports = append(imports, name.Name())
		}
	}

	for _, name := range imports {
		b := c.define(name)
		if err := c.reassign(target, name, b); err != nil {
			return expr{}, err
		}
		c.assign(b, c.d.modGet(mb.target, name))
	}
	return c.null(), nil
}

func (c *compiler) match(n *ast.Node, lp *loopCtx) (expr, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return expr{}, c.errorf(n, "match expects a value")
	}
	clauses := args[1:]
	if len(clauses)%2 != 0 {
		return expr{}, c.errorf(n, "match clauses must come in pattern/result pairs")
	}

	v, err := c.expr(args[0])
	if err != nil {
		return expr{}, err
	}
	v = c.stable(v)

	result := ""
	if lp == nil {
		result = c.names.temp("t")
		c.emit(&declStmt{target: result})
	}
	if err := c.clauses(n, clauses, v.code, result, lp); err != nil {
		return expr{}, err
	}
	return expr{result, true}, nil
}

// clauses emits the first clause and nests the remaining ones under its
// else branch.
func (c *compiler) clauses(n *ast.Node, clauses []*ast.Node, v, result string, lp *loopCtx) error {
	if len(clauses) == 0 {
		pos := n.Pos()
		c.emit(&exprStmt{call("rt_nomatch", v, strconv.Itoa(pos.Line), strconv.Itoa(pos.Col))})
		return nil
	}

	m, err := c.pattern(clauses[0], v)
	if err != nil {
		return err
	}
	arm := func() error {
		saved := c.scope
		c.scope = newScope(saved)
		defer func() { c.scope = saved }()

		for _, pb := range m.binds {
			c.assign(c.bind(pb.name, bindLocal), pb.value)
		}
		c.hoist(clauses[1:2])
		if lp != nil {
			return c.tail(clauses[1], lp)
		}
		e, err := c.expr(clauses[1])
		if err != nil {
			return err
		}
		c.emit(&assignStmt{target: result, value: e.code})
		return nil
	}

	if m.cond == "" {
		return arm()
	}
	then, err := c.collect(arm)
	if err != nil {
		return err
	}
	els, err := c.collect(func() error {
		return c.clauses(n, clauses[2:], v, result, lp)
	})
	if err != nil {
		return err
	}
	c.emit(&ifStmt{cond: m.cond, then: then, els: els})
	return nil
}

type patternMatch struct {
	cond  string
	binds []patternBind
}

type patternBind struct {
	name  string
	value string
}

// pattern returns the condition under which p matches v and the bindings
// it makes. Symbols and literals are tested inline, structured patterns go
// through the runtime matcher.
func (c *compiler) pattern(p *ast.Node, v string) (*patternMatch, error) {
	switch p.Type() {
	case ast.NodeTypeSymbol:
		if p.Name() == "_" {
			return &patternMatch{}, nil
		}
		return &patternMatch{binds: []patternBind{{p.Name(), v}}}, nil

	case ast.NodeTypeList, ast.NodeTypeMap:
		var names []string
		desc, err := c.describe(p, &names)
		if err != nil {
			return nil, err
		}
		m := c.names.temp("m")
		c.emit(&assignStmt{target: m, value: call("rt_match", c.constant("p", desc), v), decl: true})
		pm := &patternMatch{cond: c.d.notNull(m)}
		for i, name := range names {
			pm.binds = append(pm.binds, patternBind{name, fmt.Sprintf("%s[%d]", m, i)})
		}
		return pm, nil

	case ast.NodeTypeExpression:
		if p.IsForm("quote") && p.Len() == 2 {
			return &patternMatch{cond: call("rt_equal", v, c.quoted(p.List()[1]))}, nil
		}
		return nil, c.errorf(p, "invalid pattern %s", ast.Encode(p))
	}
	return &patternMatch{cond: call("rt_equal", v, c.quoted(p))}, nil
}

// describe renders p as the data the runtime matcher walks. Bound names are
// appended to names in the order the matcher produces their values.
func (c *compiler) describe(p *ast.Node, names *[]string) (string, error) {
	tag := func(name string, rest ...string) string {
		return c.d.listLit(append([]string{quote(name)}, rest...))
	}

	switch p.Type() {
	case ast.NodeTypeSymbol:
		if p.Name() == "_" {
			return tag("_"), nil
		}
		*names = append(*names, p.Name())
		return tag("b"), nil

	case ast.NodeTypeList:
		elems := p.List()
		var rest *ast.Node
		for i, elem := range elems {
			if elem.IsSymbol("&") {
				if i != len(elems)-2 {
					return "", c.errorf(elem, "'&' must be followed by exactly one pattern")
				}
				elems, rest = elems[:i], elems[i+1]
				break
			}
		}
		subs := []string{}
		for _, elem := range elems {
			sub, err := c.describe(elem, names)
			if err != nil {
				return "", err
			}
			subs = append(subs, sub)
		}
		restDesc := c.d.nullLit()
		if rest != nil {
			var err error
			if restDesc, err = c.describe(rest, names); err != nil {
				return "", err
			}
		}
		return tag("l", c.d.listLit(subs), restDesc), nil

	case ast.NodeTypeMap:
		children := p.List()
		pairs := []string{}
		for i := 0; i+1 < len(children); i += 2 {
			sub, err := c.describe(children[i+1], names)
			if err != nil {
				return "", err
			}
			pairs = append(pairs, c.d.listLit([]string{quote(children[i].Name()), sub}))
		}
		return tag("m", c.d.listLit(pairs)), nil

	case ast.NodeTypeExpression:
		if p.IsForm("quote") && p.Len() == 2 {
			return tag("=", c.quoted(p.List()[1])), nil
		}
		return "", c.errorf(p, "invalid pattern %s", ast.Encode(p))
	}
	return tag("=", c.quoted(p)), nil
}
