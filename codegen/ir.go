package codegen

import (
	"bytes"
	"strings"
)

// stmt is a statement of the target independent program the compiler
// lowers a forest into. Expressions inside statements are already rendered
// for the target.
type stmt interface {
	isStmt()
}

// declStmt introduces target ahead of its first assignment. A non-empty
// builtin starts the binding off as that builtin.
type declStmt struct {
	target  string
	builtin string
}

type assignStmt struct {
	target string
	value  string
	decl   bool
}

type exprStmt struct {
	value string
}

type ifStmt struct {
	cond string
	then []stmt
	els  []stmt
}

// whileStmt loops until a break. Loop bodies end every path with either
// break or continue.
type whileStmt struct {
	body []stmt
}

type breakStmt struct{}

type continueStmt struct{}

type returnStmt struct {
	value string
}

// funcStmt binds target to a function. When captures is not empty the
// function is built by factory so that it sees the values the captured
// bindings hold at creation time.
type funcStmt struct {
	target   string
	decl     bool
	name     string
	params   []string
	rest     string
	body     []stmt
	captures []string
	factory  string
}

// tryStmt runs body and, when it raises a thrown value, binds the error to
// exc and runs handler.
type tryStmt struct {
	body    []stmt
	exc     string
	handler []stmt
}

func (*declStmt) isStmt()     {}
func (*assignStmt) isStmt()   {}
func (*exprStmt) isStmt()     {}
func (*ifStmt) isStmt()       {}
func (*whileStmt) isStmt()    {}
func (*breakStmt) isStmt()    {}
func (*continueStmt) isStmt() {}
func (*returnStmt) isStmt()   {}
func (*funcStmt) isStmt()     {}
func (*tryStmt) isStmt()      {}

// expr is a rendered expression. A pure expression can be evaluated later
// than its position in the source without changing the program.
type expr struct {
	code string
	pure bool
}

func codes(items []expr) []string {
	out := make([]string, len(items))
	for i := range items {
		out[i] = items[i].code
	}
	return out
}

func allPure(items []expr) bool {
	for i := range items {
		if !items[i].pure {
			return false
		}
	}
	return true
}

func call(fn string, args ...string) string {
	return fn + "(" + strings.Join(args, ", ") + ")"
}

type writer struct {
	out         bytes.Buffer
	indentlevel int
	tab         string
}

func (w *writer) indent() {
	for i := 0; i < w.indentlevel; i++ {
		w.out.WriteString(w.tab)
	}
}

func (w *writer) write(s string) {
	w.out.WriteString(s)
}

func (w *writer) writeLine(s string) {
	w.indent()
	w.out.WriteString(s)
	w.out.WriteByte('\n')
}
