package hive

import (
	"bufio"
	"fmt"
	"io"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
)

// Variadic marks a builtin without an upper argument limit.
const Variadic = -1

// BuiltinFunc implements a builtin over already evaluated arguments.
type BuiltinFunc func(c *Call, args []*Value) (*Value, error)

// Builtin is a function implemented by the host.
type Builtin struct {
	Name string
	Min  int
	Max  int
	Fn   BuiltinFunc
}

func (b *Builtin) checkArity(c *Call, n int) error {
	if n >= b.Min && (b.Max == Variadic || n <= b.Max) {
		return nil
	}
	var want string
	switch {
	case b.Max == Variadic:
		want = fmt.Sprintf("at least %d", b.Min)
	case b.Min == b.Max:
		want = fmt.Sprintf("%d", b.Min)
	default:
		want = fmt.Sprintf("%d to %d", b.Min, b.Max)
	}
	return c.Errorf(diag.Type, "%s expects %s arguments, got %d", b.Name, want, n)
}

// Call is the context a builtin runs in.
type Call struct {
	in   *Interpreter
	name string
	pos  ast.Pos
}

// Errorf creates an error positioned at the call site.
func (c *Call) Errorf(kind diag.Kind, format string, args ...interface{}) error {
	return diag.Errorf(kind, c.pos.Line, c.pos.Col, format, args...)
}

// Apply calls a function value from within a builtin.
func (c *Call) Apply(fn *Value, args ...*Value) (*Value, error) {
	return c.in.apply(fn, args, c.pos)
}

// Stdout returns the writer print sends its output to.
func (c *Call) Stdout() io.Writer {
	return c.in.stdout
}

func (c *Call) Stderr() io.Writer {
	return c.in.stderr
}

// Stdin returns the reader read-line consumes.
func (c *Call) Stdin() *bufio.Reader {
	return c.in.stdin
}

// Registry holds the builtins available to a global environment. Builtins
// are registered once and the registry is then shared read-only by the
// evaluator and the code generators.
type Registry struct {
	names []string
	m     map[string]*Builtin
}

// NewRegistry creates a registry with every standard builtin.
func NewRegistry() *Registry {
	r := &Registry{m: map[string]*Builtin{}}
	registerOps(r)
	registerLib(r)
	return r
}

// Register adds or replaces a builtin.
func (r *Registry) Register(name string, min, max int, fn BuiltinFunc) {
	if _, ok := r.m[name]; !ok {
		r.names = append(r.names, name)
	}
	r.m[name] = &Builtin{Name: name, Min: min, Max: max, Fn: fn}
}

// Lookup returns the builtin registered under name.
func (r *Registry) Lookup(name string) (*Builtin, bool) {
	b, ok := r.m[name]
	return b, ok
}

// Names returns builtin names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

func typeName(v *Value) string {
	return v.Type.String()
}

func (c *Call) expect(v *Value, what string, types ...ValueType) error {
	for _, t := range types {
		if v.Type == t {
			return nil
		}
	}
	return c.Errorf(diag.Type, "%s expects %s, got %s", c.name, what, typeName(v))
}

func (c *Call) expectList(v *Value) error {
	return c.expect(v, "a list", ValueTypeList)
}

func (c *Call) expectMap(v *Value) error {
	return c.expect(v, "a map", ValueTypeMap)
}

func (c *Call) expectString(v *Value) error {
	return c.expect(v, "a string", ValueTypeString)
}

func (c *Call) expectInt(v *Value) error {
	return c.expect(v, "an int", ValueTypeInt)
}

func (c *Call) expectKeyword(v *Value) error {
	return c.expect(v, "a keyword", ValueTypeKeyword)
}

func (c *Call) expectFunction(v *Value) error {
	if v.IsCallable() {
		return nil
	}
	return c.Errorf(diag.Type, "%s expects a function, got %s", c.name, typeName(v))
}

func (c *Call) expectNumber(v *Value) error {
	if v.IsNumber() {
		return nil
	}
	return c.Errorf(diag.Type, "%s expects numbers, got %s", c.name, typeName(v))
}
