// Package hive evaluates HiveSpeak programs.
//
// A program is read by the lexer and parser packages, macro-expanded by the
// macro package and then evaluated form by form against a global
// environment holding the builtins of a Registry.
//
//	in := hive.New(hive.WithStdout(os.Stdout))
//	v, err := in.Run([]byte(`(def (sq x) (* x x)) (sq 12)`))
package hive

import (
	"bufio"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/macro"
	"github.com/xiam/hive/parser"
)

// DefaultMaxCallDepth limits nested function calls.
const DefaultMaxCallDepth = 10000

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout sets the writer print sends its output to.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) {
		in.stdout = w
	}
}

// WithStderr sets the writer print-err sends its output to.
func WithStderr(w io.Writer) Option {
	return func(in *Interpreter) {
		in.stderr = w
	}
}

// WithStdin sets the reader read-line consumes.
func WithStdin(r io.Reader) Option {
	return func(in *Interpreter) {
		in.stdin = bufio.NewReader(r)
	}
}

// WithLogger sets the logger for load, expansion and eval traces.
func WithLogger(logger *log.Logger) Option {
	return func(in *Interpreter) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// WithSearchPaths adds directories to look modules up in.
func WithSearchPaths(paths ...string) Option {
	return func(in *Interpreter) {
		in.searchPaths = append(in.searchPaths, paths...)
	}
}

// WithMaxMacroDepth sets the macro expansion depth guard.
func WithMaxMacroDepth(depth int) Option {
	return func(in *Interpreter) {
		if depth > 0 {
			in.maxMacroDepth = depth
		}
	}
}

// WithMaxCallDepth sets how deeply function calls may nest.
func WithMaxCallDepth(depth int) Option {
	return func(in *Interpreter) {
		if depth > 0 {
			in.maxCallDepth = depth
		}
	}
}

// WithLoader replaces the file based module loader.
func WithLoader(loader ModuleLoader) Option {
	return func(in *Interpreter) {
		in.loader = loader
	}
}

// WithRegistry sets the builtins of the global environment.
func WithRegistry(reg *Registry) Option {
	return func(in *Interpreter) {
		in.registry = reg
	}
}

// Interpreter holds the state shared by all the units it runs: the global
// scope, the macro table and the module cache.
type Interpreter struct {
	registry *Registry
	global   *Env
	macros   *macro.Table
	expander *macro.Expander
	loader   ModuleLoader

	stdout io.Writer
	stderr io.Writer
	stdin  *bufio.Reader
	logger *log.Logger

	searchPaths   []string
	maxMacroDepth int
	maxCallDepth  int

	depth   int
	units   []string
	loading map[string]bool
}

// New creates an interpreter.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		stdin:         bufio.NewReader(os.Stdin),
		logger:        log.New(io.Discard, "", 0),
		maxMacroDepth: macro.DefaultMaxDepth,
		maxCallDepth:  DefaultMaxCallDepth,
		loading:       map[string]bool{},
	}
	for _, opt := range opts {
		opt(in)
	}

	if in.registry == nil {
		in.registry = NewRegistry()
	}
	if in.loader == nil {
		in.loader = NewFileLoader(in)
	}
	in.global = NewGlobalEnvironment(in.registry)
	in.macros = macro.NewTable()
	in.expander = macro.NewExpander(in.macros,
		macro.WithMaxDepth(in.maxMacroDepth),
		macro.WithLogger(in.logger),
	)
	return in
}

// Global returns the global scope.
func (in *Interpreter) Global() *Env {
	return in.global
}

// Registry returns the builtins the interpreter was created with.
func (in *Interpreter) Registry() *Registry {
	return in.registry
}

// Macros returns the macro table shared by every unit.
func (in *Interpreter) Macros() *macro.Table {
	return in.macros
}

// Eval evaluates an expanded node. A nil env means the global scope.
func (in *Interpreter) Eval(node *ast.Node, env *Env) (*Value, error) {
	if env == nil {
		env = in.global
	}
	return in.eval(node, env, false)
}

// Expand registers the macros defined in forest and returns the remaining
// forms expanded.
func (in *Interpreter) Expand(forest []*ast.Node) ([]*ast.Node, error) {
	return in.expander.ExpandAll(forest)
}

// Run evaluates every top-level form of src in the global scope and returns
// the value of the last one.
func (in *Interpreter) Run(src []byte) (*Value, error) {
	return in.run("", src)
}

// RunFile evaluates the file at path. Modules used by the file resolve
// relative to its directory.
func (in *Interpreter) RunFile(path string) (*Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	in.loading[abs] = true
	defer delete(in.loading, abs)

	return in.run(abs, src)
}

func (in *Interpreter) run(path string, src []byte) (*Value, error) {
	result := Null
	err := in.eachForm(path, src, func(node *ast.Node) error {
		var err error
		result, err = in.eval(node, in.global, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (in *Interpreter) runUnit(path string, src []byte, env *Env) error {
	return in.eachForm(path, src, func(node *ast.Node) error {
		_, err := in.eval(node, env, false)
		return err
	})
}

// eachForm parses src and expands its top-level forms one at a time, so a
// form sees the macros defined by the forms before it.
func (in *Interpreter) eachForm(path string, src []byte, fn func(*ast.Node) error) error {
	forest, err := parser.Parse(src)
	if err != nil {
		return err
	}

	in.units = append(in.units, path)
	defer func() {
		in.units = in.units[:len(in.units)-1]
	}()

	for _, form := range forest {
		nodes, err := in.expander.ExpandForm(form)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			if err := fn(node); err != nil {
				return err
			}
		}
	}
	return nil
}

// unitDir returns the directory of the unit being evaluated, or the working
// directory for units that did not come from a file.
func (in *Interpreter) unitDir() string {
	for i := len(in.units) - 1; i >= 0; i-- {
		if in.units[i] != "" {
			return filepath.Dir(in.units[i])
		}
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// Eval runs src in a new interpreter and returns the value of its last
// form.
func Eval(src []byte) (*Value, error) {
	return New().Run(src)
}
