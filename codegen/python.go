package codegen

import (
	"math"
	"math/big"
	"strings"

	"github.com/xiam/hive"
)

type python struct{}

func (python) intLit(i *big.Int) string {
	return i.String()
}

func (python) floatLit(f float64) string {
	switch {
	case math.IsNaN(f):
		return `float("nan")`
	case math.IsInf(f, 1):
		return `float("inf")`
	case math.IsInf(f, -1):
		return `-float("inf")`
	}
	return hive.FormatFloat(f)
}

func (python) boolLit(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func (python) nullLit() string {
	return "None"
}

func (python) listLit(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

func (python) mapLit(keys, values []string) string {
	pairs := make([]string, len(keys))
	for i := range keys {
		pairs[i] = keys[i] + ": " + values[i]
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

func (python) ternary(cond, a, b string) string {
	return "(" + a + " if " + cond + " else " + b + ")"
}

// Python truthiness already matches HiveSpeak for every runtime value.
func (python) truthy(e string) string {
	return e
}

func (python) falsy(e string) string {
	return "not " + e
}

func (python) notNull(e string) string {
	return e + " is not None"
}

func (python) modGet(mod, name string) string {
	return mod + "[" + quote(name) + "]"
}

func (python) runtime() string {
	return pythonRuntime
}

func (p python) program(w *writer, consts, body []stmt) {
	w.tab = "    "
	w.write("\n# program\n")
	p.stmts(w, consts)
	p.stmts(w, body)
}

func (p python) stmts(w *writer, list []stmt) int {
	n := 0
	for _, s := range list {
		if p.stmt(w, s) {
			n++
		}
	}
	return n
}

func (p python) block(w *writer, list []stmt) {
	w.indentlevel++
	if p.stmts(w, list) == 0 {
		w.writeLine("pass")
	}
	w.indentlevel--
}

func (p python) stmt(w *writer, s stmt) bool {
	switch s := s.(type) {
	case *declStmt:
		return false
	case *assignStmt:
		w.writeLine(s.target + " = " + s.value)
	case *exprStmt:
		w.writeLine(s.value)
	case *ifStmt:
		w.writeLine("if " + s.cond + ":")
		p.block(w, s.then)
		for els := s.els; len(els) > 0; {
			if next, ok := els[0].(*ifStmt); ok && len(els) == 1 {
				w.writeLine("elif " + next.cond + ":")
				p.block(w, next.then)
				els = next.els
				continue
			}
			w.writeLine("else:")
			p.block(w, els)
			break
		}
	case *whileStmt:
		w.writeLine("while True:")
		p.block(w, s.body)
	case *breakStmt:
		w.writeLine("break")
	case *continueStmt:
		w.writeLine("continue")
	case *returnStmt:
		w.writeLine("return " + s.value)
	case *funcStmt:
		p.function(w, s)
	case *tryStmt:
		w.writeLine("try:")
		p.block(w, s.body)
		w.writeLine("except HiveThrown as " + s.exc + ":")
		p.block(w, s.handler)
	}
	return true
}

func (p python) function(w *writer, s *funcStmt) {
	if s.factory == "" {
		p.def(w, s)
		return
	}
	captures := strings.Join(s.captures, ", ")
	w.writeLine("def " + s.factory + "(" + captures + "):")
	w.indentlevel++
	p.def(w, s)
	w.writeLine("return " + s.target)
	w.indentlevel--
	w.writeLine(s.target + " = " + s.factory + "(" + captures + ")")
}

func (p python) def(w *writer, s *funcStmt) {
	params := append([]string{}, s.params...)
	if s.rest != "" {
		params = append(params, "*"+s.rest)
	}
	w.writeLine("def " + s.target + "(" + strings.Join(params, ", ") + "):")
	w.indentlevel++
	if s.rest != "" {
		w.writeLine(s.rest + " = list(" + s.rest + ")")
	}
	p.stmts(w, s.body)
	w.indentlevel--
}
