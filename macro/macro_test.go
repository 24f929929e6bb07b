package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
	"github.com/xiam/hive/parser"
)

func expandSource(t *testing.T, x *Expander, src string) ([]*ast.Node, error) {
	forest, err := parser.Parse([]byte(src))
	require.NoError(t, err)
	return x.ExpandAll(forest)
}

func TestExpand(t *testing.T) {
	testCases := []struct {
		In  string
		Out string
	}{
		{
			In:  `(macro (unless c & body) '(if ~c N (do ~@body))) (unless F (print 1) 2)`,
			Out: `(if F N (do (print 1) 2))`,
		},
		{
			In:  `(macro (sq x) (* x x)) (sq 5) (sq (+ 1 2))`,
			Out: "(* 5 5)\n(* (+ 1 2) (+ 1 2))",
		},
		{
			In:  `(macro (sq x) '(* x ~x)) (sq 5)`,
			Out: `(* x 5)`,
		},
		{
			In: `(macro (unless c & body) '(if ~c N (do ~@body)))
				(macro (twice x) '(do ~x ~x))
				(twice (unless F 1))`,
			Out: `(do (if F N (do 1)) (if F N (do 1)))`,
		},
		{
			In:  `(macro (args & xs) '(list ~xs)) (args 1 2 3) (args)`,
			Out: "(list [1 2 3])\n(list [])",
		},
		{
			In:  `(macro (call f xs) '(~f ~@xs)) (call + [1 2 3])`,
			Out: `(+ 1 2 3)`,
		},
		{
			In:  `(macro (rec k v) '{~k ~v}) (rec :a (+ 1 2))`,
			Out: `{:a (+ 1 2)}`,
		},
		{
			In:  `(macro (sq x) (* x x)) '(sq 2) (quote (sq 3))`,
			Out: "(quote (sq 2))\n(quote (sq 3))",
		},
		{
			In:  `(macro (sq x) (* x x)) (fn [n] (let [y (sq n)] [y {:v (sq y)}]))`,
			Out: `(fn [n] (let [y (* n n)] [y {:v (* y y)}]))`,
		},
		{
			In:  `(mod m (macro (inc x) '(+ ~x 1)) (def (f y) (inc y))) (inc 2)`,
			Out: "(mod m (def (f y) (+ y 1)))\n(+ 2 1)",
		},
		{
			In:  `(macro (m) 1) (macro (m) 2) (m)`,
			Out: `2`,
		},
	}

	for i := range testCases {
		out, err := expandSource(t, NewExpander(NewTable()), testCases[i].In)
		assert.NoError(t, err, "input: %s", testCases[i].In)
		assert.Equal(t, testCases[i].Out, string(ast.EncodeForest(out)), "input: %s", testCases[i].In)
	}
}

func TestExpandIdempotent(t *testing.T) {
	x := NewExpander(NewTable())

	once, err := expandSource(t, x,
		`(macro (unless c & body) '(if ~c N (do ~@body)))
		(def (f n) (unless (= n 0) (print n) (f (- n 1))))
		(f 3)`)
	require.NoError(t, err)

	twice, err := x.ExpandAll(once)
	require.NoError(t, err)

	assert.True(t, ast.EqualForest(once, twice))
}

func TestExpandSharesNoNodes(t *testing.T) {
	out, err := expandSource(t, NewExpander(NewTable()), `(macro (wrap x) '[~x]) (wrap 1) (wrap 2)`)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "[1]", string(ast.Encode(out[0])))
	assert.Equal(t, "[2]", string(ast.Encode(out[1])))
}

func TestCaptureIsNotPrevented(t *testing.T) {
	out, err := expandSource(t, NewExpander(NewTable()),
		`(macro (add-tmp a b) '(let [tmp ~a] (+ tmp ~b))) (add-tmp 1 tmp)`)
	require.NoError(t, err)

	// the caller's tmp is captured by the template binding
	assert.Equal(t, `(let [tmp 1] (+ tmp tmp))`, string(ast.EncodeForest(out)))
}

func TestExpandErrors(t *testing.T) {
	testCases := []struct {
		In  string
		Pos [2]int
	}{
		{`(macro (inf x) '(inf ~x)) (inf 1)`, [2]int{1, 17}},
		{`(macro (two a b) '(a b)) (two 1)`, [2]int{1, 26}},
		{`(macro (one a) '(a)) (one 1 2)`, [2]int{1, 22}},
		{`(do (macro (m) 1))`, [2]int{1, 5}},
		{`(macro (m x) x) (map m [1 2])`, [2]int{1, 22}},
		{`(macro (m x) '(~y)) (m 1)`, [2]int{1, 16}},
		{`(macro (m x) '(~@x)) (m 1)`, [2]int{1, 16}},
		{`(macro m 1)`, [2]int{1, 8}},
		{`(macro (m a & b c) 1)`, [2]int{1, 13}},
		{`(macro (m) 1 2)`, [2]int{1, 1}},
		{`(macro (m k) '{~k 1}) (m 2)`, [2]int{1, 26}},
	}

	for i := range testCases {
		_, err := expandSource(t, NewExpander(NewTable()), testCases[i].In)
		if assert.Error(t, err, "input: %s", testCases[i].In) {
			e, ok := err.(*diag.Error)
			if assert.True(t, ok) {
				assert.Equal(t, diag.Macro, e.Kind, "input: %s", testCases[i].In)
				assert.Equal(t, testCases[i].Pos, [2]int{e.Line, e.Col}, "input: %s: %v", testCases[i].In, err)
			}
		}
	}
}

func TestMaxDepth(t *testing.T) {
	src := `(macro (a) '(b)) (macro (b) '(c)) (macro (c) '(d)) (macro (d) 1) (a)`

	out, err := expandSource(t, NewExpander(NewTable(), WithMaxDepth(4)), src)
	assert.NoError(t, err)
	assert.Equal(t, "1", string(ast.EncodeForest(out)))

	_, err = expandSource(t, NewExpander(NewTable(), WithMaxDepth(3)), src)
	assert.True(t, diag.Is(err, diag.Macro))
}

func TestTable(t *testing.T) {
	tbl := NewTable()
	_, err := expandSource(t, NewExpander(tbl), `(macro (b) 1) (macro (a x & r) x)`)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, tbl.Names())

	m, ok := tbl.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, m.Params)
	assert.Equal(t, "r", m.Rest)
	assert.False(t, tbl.Has("c"))
}
