package codegen

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/xiam/hive"
)

type javascript struct{}

func (javascript) intLit(i *big.Int) string {
	return i.String() + "n"
}

func (javascript) floatLit(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return hive.FormatFloat(f)
}

func (javascript) boolLit(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (javascript) nullLit() string {
	return "null"
}

func (javascript) listLit(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

func (javascript) mapLit(keys, values []string) string {
	if len(keys) == 0 {
		return "new Map()"
	}
	pairs := make([]string, len(keys))
	for i := range keys {
		pairs[i] = "[" + keys[i] + ", " + values[i] + "]"
	}
	return "new Map([" + strings.Join(pairs, ", ") + "])"
}

func (javascript) ternary(cond, a, b string) string {
	return "(" + cond + " ? " + a + " : " + b + ")"
}

func (javascript) truthy(e string) string {
	return call("rt_truthy", e)
}

func (javascript) falsy(e string) string {
	return "!" + call("rt_truthy", e)
}

func (javascript) notNull(e string) string {
	return e + " !== null"
}

func (javascript) modGet(mod, name string) string {
	return mod + ".get(" + quote(name) + ")"
}

func (javascript) runtime() string {
	return javascriptRuntime
}

// program wraps the body in a block so that top level bindings may shadow
// the runtime's builtins.
func (j javascript) program(w *writer, consts, body []stmt) {
	w.tab = "  "
	w.write("\n// program\n")
	j.stmts(w, consts)
	w.writeLine("{")
	j.block(w, body)
	w.writeLine("}")
}

func (j javascript) stmts(w *writer, list []stmt) {
	for _, s := range list {
		j.stmt(w, s)
	}
}

func (j javascript) block(w *writer, list []stmt) {
	w.indentlevel++
	j.stmts(w, list)
	w.indentlevel--
}

func (j javascript) stmt(w *writer, s stmt) {
	switch s := s.(type) {
	case *declStmt:
		if s.builtin != "" {
			w.writeLine("let " + s.target + " = rt_builtins.get(" + quote(s.builtin) + ");")
			return
		}
		w.writeLine("let " + s.target + ";")
	case *assignStmt:
		if s.decl {
			w.writeLine("let " + s.target + " = " + s.value + ";")
			return
		}
		w.writeLine(s.target + " = " + s.value + ";")
	case *exprStmt:
		w.writeLine(s.value + ";")
	case *ifStmt:
		w.writeLine("if (" + s.cond + ") {")
		j.block(w, s.then)
		for els := s.els; len(els) > 0; {
			if next, ok := els[0].(*ifStmt); ok && len(els) == 1 {
				w.writeLine("} else if (" + next.cond + ") {")
				j.block(w, next.then)
				els = next.els
				continue
			}
			w.writeLine("} else {")
			j.block(w, els)
			break
		}
		w.writeLine("}")
	case *whileStmt:
		w.writeLine("while (true) {")
		j.block(w, s.body)
		w.writeLine("}")
	case *breakStmt:
		w.writeLine("break;")
	case *continueStmt:
		w.writeLine("continue;")
	case *returnStmt:
		w.writeLine("return " + s.value + ";")
	case *funcStmt:
		j.function(w, s)
	case *tryStmt:
		w.writeLine("try {")
		j.block(w, s.body)
		w.writeLine("} catch (" + s.exc + ") {")
		w.indentlevel++
		w.writeLine("if (!(" + s.exc + " instanceof HiveThrown)) throw " + s.exc + ";")
		j.stmts(w, s.handler)
		w.indentlevel--
		w.writeLine("}")
	}
}

func (j javascript) function(w *writer, s *funcStmt) {
	params := append([]string{}, s.params...)
	if s.rest != "" {
		params = append(params, "..."+s.rest)
	}
	head := s.target + " = function (" + strings.Join(params, ", ") + ") {"
	if s.decl {
		head = "let " + head
	}
	name := s.name
	if name == "" {
		name = "<anonymous>"
	}
	w.writeLine(head)
	w.indentlevel++
	w.writeLine(fmt.Sprintf("rt_arity(%s, arguments.length, %d, %t);", quote(name), len(s.params), s.rest != ""))
	j.stmts(w, s.body)
	w.indentlevel--
	w.writeLine("};")
}
