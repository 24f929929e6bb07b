package hive

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
)

var (
	errUndefinedSymbol = errors.New("undefined symbol")
	errNotCallable     = errors.New("value is not callable")
	errArity           = errors.New("wrong number of arguments")
	errCallDepth       = errors.New("maximum call depth exceeded")
	errBadForm         = errors.New("malformed special form")
)

// Thrown is a value raised by throw that reached the top of the stack
// without being caught.
type Thrown struct {
	Value *Value
	Line  int
	Col   int
}

func (t *Thrown) Error() string {
	return fmt.Sprintf("uncaught throw at line %d, col %d: %s", t.Line, t.Col, Format(t.Value))
}

// recurSignal unwinds from a recur in tail position to the innermost loop.
type recurSignal struct {
	args []*Value
	pos  ast.Pos
}

func (r *recurSignal) Error() string {
	return "recur outside of loop"
}

type specialForm func(in *Interpreter, n *ast.Node, env *Env, tail bool) (*Value, error)

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"def":     (*Interpreter).evalDef,
		"let":     (*Interpreter).evalLet,
		"fn":      (*Interpreter).evalFn,
		"if":      (*Interpreter).evalIf,
		"do":      (*Interpreter).evalDo,
		"match":   (*Interpreter).evalMatch,
		"loop":    (*Interpreter).evalLoop,
		"recur":   (*Interpreter).evalRecur,
		"quote":   (*Interpreter).evalQuote,
		"eval":    (*Interpreter).evalEval,
		"try":     (*Interpreter).evalTry,
		"throw":   (*Interpreter).evalThrow,
		"and":     (*Interpreter).evalAnd,
		"or":      (*Interpreter).evalOr,
		"|>":      (*Interpreter).evalPipe,
		"mod":     (*Interpreter).evalMod,
		"use":     (*Interpreter).evalUse,
		"macro":   (*Interpreter).evalMacroForm,
		"unquote": (*Interpreter).evalMacroForm,
		"splice":  (*Interpreter).evalMacroForm,
	}
}

// IsSpecialForm reports whether name is handled by the evaluator instead of
// being looked up as a binding.
func IsSpecialForm(name string) bool {
	_, ok := specialForms[name]
	return ok
}

// SpecialForms returns the names of all special forms, sorted.
func SpecialForms() []string {
	names := make([]string, 0, len(specialForms))
	for name := range specialForms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func errorAt(n *ast.Node, kind diag.Kind, format string, args ...interface{}) error {
	pos := n.Pos()
	return diag.Errorf(kind, pos.Line, pos.Col, format, args...)
}

func formError(n *ast.Node, format string, args ...interface{}) error {
	pos := n.Pos()
	return diag.Wrap(errBadForm, diag.Type, pos.Line, pos.Col, format, args...)
}

func (in *Interpreter) eval(n *ast.Node, env *Env, tail bool) (*Value, error) {
	switch n.Type() {
	case ast.NodeTypeSymbol:
		if v, ok := env.Get(n.Name()); ok {
			return v, nil
		}
		pos := n.Pos()
		return nil, diag.Wrap(errUndefinedSymbol, diag.Name, pos.Line, pos.Col, "undefined symbol %q", n.Name())

	case ast.NodeTypeList:
		items, err := in.evalArgs(n.List(), env)
		if err != nil {
			return nil, err
		}
		return NewListValue(items...), nil

	case ast.NodeTypeMap:
		m := NewMap()
		children := n.List()
		for i := 0; i+1 < len(children); i += 2 {
			v, err := in.eval(children[i+1], env, false)
			if err != nil {
				return nil, err
			}
			m = m.Set(children[i].Name(), v)
		}
		return NewMapValue(m), nil

	case ast.NodeTypeExpression:
		return in.evalExpression(n, env, tail)
	}

	return quoteNode(n), nil
}

func (in *Interpreter) evalArgs(nodes []*ast.Node, env *Env) ([]*Value, error) {
	values := make([]*Value, len(nodes))
	for i := range nodes {
		v, err := in.eval(nodes[i], env, false)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// evalBody evaluates a sequence and returns the last value. Only the last
// expression inherits the tail position.
func (in *Interpreter) evalBody(body []*ast.Node, env *Env, tail bool) (*Value, error) {
	result := Null
	for i := range body {
		var err error
		result, err = in.eval(body[i], env, tail && i == len(body)-1)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (in *Interpreter) evalExpression(n *ast.Node, env *Env, tail bool) (*Value, error) {
	children := n.List()
	if len(children) == 0 {
		return Null, nil
	}
	if sf, ok := specialForms[n.Head()]; ok {
		return sf(in, n, env, tail)
	}

	fn, err := in.eval(children[0], env, false)
	if err != nil {
		return nil, err
	}
	args, err := in.evalArgs(children[1:], env)
	if err != nil {
		return nil, err
	}
	return in.apply(fn, args, n.Pos())
}

func (in *Interpreter) apply(fn *Value, args []*Value, pos ast.Pos) (*Value, error) {
	switch fn.Type {
	case ValueTypeBuiltin:
		b := fn.Builtin()
		c := &Call{in: in, name: b.Name, pos: pos}
		if err := b.checkArity(c, len(args)); err != nil {
			return nil, err
		}
		return b.Fn(c, args)

	case ValueTypeFunction:
		return in.call(fn.Function(), args, pos)
	}
	return nil, diag.Wrap(errNotCallable, diag.Type, pos.Line, pos.Col, "cannot call a value of type %s", typeName(fn))
}

func (in *Interpreter) call(fn *Function, args []*Value, pos ast.Pos) (*Value, error) {
	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}
	if len(args) < len(fn.Params) || (fn.Rest == "" && len(args) > len(fn.Params)) {
		return nil, diag.Wrap(errArity, diag.Type, pos.Line, pos.Col, "%s expects %s arguments, got %d", name, fn.Arity(), len(args))
	}
	if in.depth >= in.maxCallDepth {
		return nil, diag.Wrap(errCallDepth, diag.Runtime, pos.Line, pos.Col, "maximum call depth %d exceeded calling %s", in.maxCallDepth, name)
	}
	in.depth++
	defer func() {
		in.depth--
	}()

	scope := NewEnv(fn.Env)
	for i, param := range fn.Params {
		scope.Define(param, args[i])
	}
	if fn.Rest != "" {
		scope.Define(fn.Rest, NewListValue(args[len(fn.Params):]...))
	}
	return in.evalBody(fn.Body, scope, false)
}

// parseParams reads a parameter vector, where & introduces the rest
// parameter.
func parseParams(nodes []*ast.Node) ([]string, string, error) {
	params := []string{}
	for i := 0; i < len(nodes); i++ {
		p := nodes[i]
		if p.Type() != ast.NodeTypeSymbol {
			return nil, "", errorAt(p, diag.Type, "parameters must be symbols, got %s", p.Type())
		}
		if p.Name() == "&" {
			if i != len(nodes)-2 || nodes[i+1].Type() != ast.NodeTypeSymbol {
				return nil, "", errorAt(p, diag.Type, "'&' must be followed by exactly one parameter")
			}
			return params, nodes[i+1].Name(), nil
		}
		params = append(params, p.Name())
	}
	return params, "", nil
}

// bindingPairs validates a [name expr ...] vector.
func bindingPairs(form string, n *ast.Node) ([]*ast.Node, error) {
	if n.Type() != ast.NodeTypeList {
		return nil, formError(n, "%s expects a binding vector", form)
	}
	pairs := n.List()
	if len(pairs)%2 != 0 {
		return nil, formError(n, "%s bindings must come in name/value pairs", form)
	}
	for i := 0; i < len(pairs); i += 2 {
		if pairs[i].Type() != ast.NodeTypeSymbol {
			return nil, formError(pairs[i], "%s binding names must be symbols, got %s", form, pairs[i].Type())
		}
	}
	return pairs, nil
}

func (in *Interpreter) evalDef(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return nil, formError(n, "def expects a name and a value")
	}

	target := args[0]
	switch target.Type() {
	case ast.NodeTypeSymbol:
		if len(args) != 2 {
			return nil, formError(n, "def expects a name and a value")
		}
		v, err := in.eval(args[1], env, false)
		if err != nil {
			return nil, err
		}
		if v.Type == ValueTypeFunction && v.Function().Name == "" {
			named := *v.Function()
			named.Name = target.Name()
			v = NewFunctionValue(&named)
		}
		env.Define(target.Name(), v)
		return v, nil

	case ast.NodeTypeExpression:
		sig := target.List()
		if len(sig) == 0 || sig[0].Type() != ast.NodeTypeSymbol {
			return nil, formError(target, "def signature must look like (name param...)")
		}
		params, rest, err := parseParams(sig[1:])
		if err != nil {
			return nil, err
		}
		v := NewFunctionValue(&Function{
			Name:   sig[0].Name(),
			Params: params,
			Rest:   rest,
			Body:   args[1:],
			Env:    env,
		})
		env.Define(sig[0].Name(), v)
		return v, nil
	}

	return nil, formError(target, "def expects a symbol or a signature, got %s", target.Type())
}

func (in *Interpreter) evalFn(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 || args[0].Type() != ast.NodeTypeList {
		return nil, formError(n, "fn expects a parameter vector")
	}
	params, rest, err := parseParams(args[0].List())
	if err != nil {
		return nil, err
	}
	return NewFunctionValue(&Function{
		Params: params,
		Rest:   rest,
		Body:   args[1:],
		Env:    env,
	}), nil
}

func (in *Interpreter) evalLet(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return nil, formError(n, "let expects a binding vector")
	}
	pairs, err := bindingPairs("let", args[0])
	if err != nil {
		return nil, err
	}
	scope, err := in.bindSequentially(pairs, env, nil)
	if err != nil {
		return nil, err
	}
	return in.evalBody(args[1:], scope, tail)
}

// bindSequentially evaluates name/value pairs left to right. Every binding
// opens a scope nested in the previous one, so a closure made by a value
// keeps seeing the bindings that preceded it even when a later pair reuses
// a name.
func (in *Interpreter) bindSequentially(pairs []*ast.Node, env *Env, each func(name string)) (*Env, error) {
	scope := NewEnv(env)
	for i := 0; i < len(pairs); i += 2 {
		v, err := in.eval(pairs[i+1], scope, false)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			scope = NewEnv(scope)
		}
		name := pairs[i].Name()
		scope.Define(name, v)
		if each != nil {
			each(name)
		}
	}
	return scope, nil
}

func (in *Interpreter) evalIf(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) < 2 || len(args) > 3 {
		return nil, formError(n, "if expects a condition, a branch and an optional else branch")
	}
	cond, err := in.eval(args[0], env, false)
	if err != nil {
		return nil, err
	}
	if Truthy(cond) {
		return in.eval(args[1], env, tail)
	}
	if len(args) == 3 {
		return in.eval(args[2], env, tail)
	}
	return Null, nil
}

func (in *Interpreter) evalDo(n *ast.Node, env *Env, tail bool) (*Value, error) {
	return in.evalBody(n.List()[1:], env, tail)
}

func (in *Interpreter) evalLoop(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return nil, formError(n, "loop expects a binding vector")
	}
	pairs, err := bindingPairs("loop", args[0])
	if err != nil {
		return nil, err
	}

	names := []string{}
	scope, err := in.bindSequentially(pairs, env, func(name string) {
		names = append(names, name)
	})
	if err != nil {
		return nil, err
	}

	body := args[1:]
	for {
		result, err := in.evalBody(body, scope, true)
		r, ok := err.(*recurSignal)
		if !ok {
			return result, err
		}
		if len(r.args) != len(names) {
			return nil, diag.Wrap(errArity, diag.Runtime, r.pos.Line, r.pos.Col, "recur expects %d arguments, got %d", len(names), len(r.args))
		}
		scope = NewEnv(env)
		for i, name := range names {
			scope.Define(name, r.args[i])
		}
	}
}

func (in *Interpreter) evalRecur(n *ast.Node, env *Env, tail bool) (*Value, error) {
	if !tail {
		return nil, errorAt(n, diag.Runtime, "recur is only allowed in tail position of a loop")
	}
	args, err := in.evalArgs(n.List()[1:], env)
	if err != nil {
		return nil, err
	}
	return nil, &recurSignal{args: args, pos: n.Pos()}
}

func (in *Interpreter) evalQuote(n *ast.Node, env *Env, tail bool) (*Value, error) {
	if n.Len() != 2 {
		return nil, formError(n, "quote expects exactly one argument")
	}
	return quoteNode(n.List()[1]), nil
}

func (in *Interpreter) evalEval(n *ast.Node, env *Env, tail bool) (*Value, error) {
	if n.Len() != 2 {
		return nil, formError(n, "eval expects exactly one argument")
	}
	data, err := in.eval(n.List()[1], env, false)
	if err != nil {
		return nil, err
	}
	code, err := dataNode(data, n.Pos())
	if err != nil {
		return nil, err
	}
	if code, err = in.expander.Expand(code); err != nil {
		return nil, err
	}
	in.logger.Printf("eval: %s", ast.Encode(code))
	return in.eval(code, env, false)
}

func (in *Interpreter) evalTry(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 || !args[len(args)-1].IsForm("catch") {
		return nil, formError(n, "try expects a (catch name handler...) clause")
	}
	clause := args[len(args)-1].List()
	if len(clause) < 2 || clause[1].Type() != ast.NodeTypeSymbol {
		return nil, formError(args[len(args)-1], "catch expects a name to bind the thrown value")
	}

	result, err := in.evalBody(args[:len(args)-1], env, false)
	if err == nil {
		return result, nil
	}
	thrown, ok := err.(*Thrown)
	if !ok {
		return nil, err
	}

	scope := NewEnv(env)
	scope.Define(clause[1].Name(), thrown.Value)
	return in.evalBody(clause[2:], scope, false)
}

func (in *Interpreter) evalThrow(n *ast.Node, env *Env, tail bool) (*Value, error) {
	if n.Len() != 2 {
		return nil, formError(n, "throw expects exactly one argument")
	}
	v, err := in.eval(n.List()[1], env, false)
	if err != nil {
		return nil, err
	}
	pos := n.Pos()
	return nil, &Thrown{Value: v, Line: pos.Line, Col: pos.Col}
}

func (in *Interpreter) evalAnd(n *ast.Node, env *Env, tail bool) (*Value, error) {
	result := True
	for _, arg := range n.List()[1:] {
		var err error
		if result, err = in.eval(arg, env, false); err != nil {
			return nil, err
		}
		if !Truthy(result) {
			break
		}
	}
	return result, nil
}

func (in *Interpreter) evalOr(n *ast.Node, env *Env, tail bool) (*Value, error) {
	result := Null
	for _, arg := range n.List()[1:] {
		var err error
		if result, err = in.eval(arg, env, false); err != nil {
			return nil, err
		}
		if Truthy(result) {
			break
		}
	}
	return result, nil
}

// evalPipe threads a value through each step. A call step (f a b) receives
// the value as its last argument.
func (in *Interpreter) evalPipe(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return nil, formError(n, "|> expects a value")
	}
	v, err := in.eval(args[0], env, false)
	if err != nil {
		return nil, err
	}
	for _, step := range args[1:] {
		var fn *Value
		var stepArgs []*Value
		if step.Type() == ast.NodeTypeExpression && step.Len() > 0 {
			if fn, err = in.eval(step.List()[0], env, false); err != nil {
				return nil, err
			}
			if stepArgs, err = in.evalArgs(step.List()[1:], env); err != nil {
				return nil, err
			}
		} else if fn, err = in.eval(step, env, false); err != nil {
			return nil, err
		}
		if v, err = in.apply(fn, append(stepArgs, v), step.Pos()); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// evalMod evaluates a module body in its own scope and binds name to a map
// of the bindings that do not start with an underscore.
func (in *Interpreter) evalMod(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 || args[0].Type() != ast.NodeTypeSymbol {
		return nil, formError(n, "mod expects a name")
	}
	scope := NewEnv(env)
	for _, form := range args[1:] {
		if _, err := in.eval(form, scope, false); err != nil {
			return nil, err
		}
	}
	v := NewMapValue(exports(scope))
	env.Define(args[0].Name(), v)
	return v, nil
}

func exports(scope *Env) *Map {
	m := NewMap()
	for _, name := range scope.Names() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		v, _ := scope.Local(name)
		m = m.Set(name, v)
	}
	return m
}

// evalUse imports bindings from a module map or from a source file. Names
// may be listed after the module, either inline or as a single vector.
func (in *Interpreter) evalUse(n *ast.Node, env *Env, tail bool) (*Value, error) {
	args := n.List()[1:]
	if len(args) == 0 {
		return nil, formError(n, "use expects a module")
	}

	var mod *Module
	target := args[0]
	switch target.Type() {
	case ast.NodeTypeSymbol:
		v, err := in.eval(target, env, false)
		if err != nil {
			return nil, err
		}
		if v.Type != ValueTypeMap {
			return nil, errorAt(target, diag.Type, "%s is not a module", target.Name())
		}
		mod = moduleFromMap(target.Name(), v.Map())
	case ast.NodeTypeString:
		var err error
		if mod, err = in.loadModule(target.Str(), target.Pos()); err != nil {
			return nil, err
		}
	default:
		return nil, formError(target, "use expects a module name or a path, got %s", target.Type())
	}

	names := args[1:]
	if len(names) == 1 && names[0].Type() == ast.NodeTypeList {
		names = names[0].List()
	}
	if len(names) == 0 {
		for _, name := range mod.Names {
			env.Define(name, mod.Bindings[name])
		}
		return Null, nil
	}
	for _, name := range names {
		if name.Type() != ast.NodeTypeSymbol {
			return nil, formError(name, "use expects symbols to import, got %s", name.Type())
		}
		v, ok := mod.Bindings[name.Name()]
		if !ok {
			return nil, errorAt(name, diag.Name, "%s is not defined in module %s", name.Name(), mod.Path)
		}
		env.Define(name.Name(), v)
	}
	return Null, nil
}

func (in *Interpreter) evalMacroForm(n *ast.Node, env *Env, tail bool) (*Value, error) {
	if n.IsForm("macro") {
		return nil, errorAt(n, diag.Macro, "macro definitions are only allowed at the top level")
	}
	return nil, errorAt(n, diag.Macro, "%s outside of a macro template", n.Head())
}
