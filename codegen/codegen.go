// Package codegen translates expanded HiveSpeak programs into Python or
// JavaScript source.
//
// The output is a single self-contained file: a runtime prelude that
// implements the builtins and the value model, followed by the program.
// Functions become native functions of the target, loop/recur becomes a
// while loop and try/throw becomes native exception handling.
//
//	forest, _ := parser.Parse(src)
//	forest, _ = macro.Expand(forest)
//	out, err := codegen.Generate(forest, codegen.Python)
package codegen

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/macro"
	"github.com/xiam/hive/parser"
)

//go:embed runtime.py
var pythonRuntime string

//go:embed runtime.js
var javascriptRuntime string

var (
	// ErrUnsupported is wrapped by errors about forms that have no
	// translation, such as eval or loading a module from a file.
	ErrUnsupported = errors.New("unsupported form")

	// ErrUndefined is wrapped by errors about symbols that are not bound
	// anywhere in the program.
	ErrUndefined = errors.New("undefined symbol")
)

// Target is an output language.
type Target uint8

// Output languages
const (
	Python Target = iota
	JavaScript
)

var targetNames = map[Target]string{
	Python:     "python",
	JavaScript: "javascript",
}

func (t Target) String() string {
	return targetNames[t]
}

// Ext returns the file extension for programs in t.
func (t Target) Ext() string {
	if t == JavaScript {
		return ".js"
	}
	return ".py"
}

// ParseTarget maps a target name to a Target.
func ParseTarget(name string) (Target, error) {
	switch strings.ToLower(name) {
	case "python", "py":
		return Python, nil
	case "javascript", "js":
		return JavaScript, nil
	}
	return 0, fmt.Errorf("unknown target %q", name)
}

func (t Target) dialect() dialect {
	if t == JavaScript {
		return javascript{}
	}
	return python{}
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger generation traces are written to.
func WithLogger(logger *log.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Generator produces programs for a target.
type Generator struct {
	target Target
	logger *log.Logger
}

// New creates a generator for target.
func New(target Target, opts ...Option) *Generator {
	g := &Generator{
		target: target,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Target returns the generator's output language.
func (g *Generator) Target() Target {
	return g.target
}

// Generate translates an expanded forest. The forest must not contain macro
// definitions or calls.
func (g *Generator) Generate(forest []*ast.Node) ([]byte, error) {
	d := g.target.dialect()
	c := newCompiler(g.target, d)

	body, err := c.program(forest)
	if err != nil {
		return nil, err
	}
	g.logger.Printf("codegen: %s: %d forms, %d constants", g.target, len(forest), len(c.consts))

	w := &writer{}
	w.write(d.runtime())
	d.program(w, c.consts, body)
	return w.out.Bytes(), nil
}

// GenerateSource parses and expands src, then translates it.
func (g *Generator) GenerateSource(src []byte) ([]byte, error) {
	forest, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	if forest, err = macro.Expand(forest); err != nil {
		return nil, err
	}
	return g.Generate(forest)
}

// Generate translates an expanded forest into a program for target.
func Generate(forest []*ast.Node, target Target) ([]byte, error) {
	return New(target).Generate(forest)
}
