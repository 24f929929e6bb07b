package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiam/hive"
	"github.com/xiam/hive/diag"
)

func generate(t *testing.T, target Target, src string) string {
	out, err := New(target).GenerateSource([]byte(src))
	require.NoError(t, err)
	return string(out)
}

// program returns the generated code that follows the runtime prelude.
func program(t *testing.T, target Target, src string) string {
	out := generate(t, target, src)
	prelude := target.dialect().runtime()
	require.True(t, strings.HasPrefix(out, prelude))
	return out[len(prelude):]
}

func TestParseTarget(t *testing.T) {
	testCases := []struct {
		In  string
		Out Target
	}{
		{"python", Python},
		{"py", Python},
		{"PY", Python},
		{"js", JavaScript},
		{"javascript", JavaScript},
	}

	for _, tc := range testCases {
		target, err := ParseTarget(tc.In)
		require.NoError(t, err)
		assert.Equal(t, tc.Out, target)
	}

	_, err := ParseTarget("ruby")
	assert.Error(t, err)

	assert.Equal(t, ".py", Python.Ext())
	assert.Equal(t, ".js", JavaScript.Ext())
	assert.Equal(t, "javascript", JavaScript.String())
}

func TestGeneratePython(t *testing.T) {
	src := `
		(def (fact n) (if (<= n 1) 1 (* n (fact (- n 1)))))
		(print (fact 10))
	`
	out := program(t, Python, src)
	assert.Equal(t, `
# program
def h_fact(h_n__1):
    return (1 if hx__3c_3d(h_n__1, 1) else hx__2a(h_n__1, h_fact(hx__2d(h_n__1, 1))))
h_print(h_fact(10))
`, out)
}

func TestGenerateJavaScript(t *testing.T) {
	src := `
		(def (fact n) (if (<= n 1) 1 (* n (fact (- n 1)))))
		(print (fact 10))
	`
	out := program(t, JavaScript, src)
	assert.Equal(t, `
// program
{
  let h_fact;
  h_fact = function (h_n__1) {
    rt_arity("fact", arguments.length, 1, false);
    return (rt_truthy(hx__3c_3d(h_n__1, 1n)) ? 1n : hx__2a(h_n__1, h_fact(hx__2d(h_n__1, 1n))));
  };
  h_print(h_fact(10n));
}
`, out)
}

func TestGenerateLoop(t *testing.T) {
	src := `(print (loop [i 0 acc []] (if (< i 3) (recur (+ i 1) (push acc i)) acc)))`

	out := program(t, Python, src)
	assert.Equal(t, `
# program
h_i__1 = 0
h_acc__2 = []
_l4 = h_i__1
_l5 = h_acc__2
while True:
    h_i__6 = _l4
    h_acc__7 = _l5
    if hx__3c(h_i__6, 3):
        _l4 = hx__2b(h_i__6, 1)
        _l5 = h_push(h_acc__7, h_i__6)
        continue
    else:
        _t3 = h_acc__7
        break
h_print(_t3)
`, out)

	out = program(t, JavaScript, src)
	assert.Contains(t, out, "while (true) {")
	assert.Contains(t, out, "let _t3;")
	assert.Contains(t, out, "continue;")
	assert.Contains(t, out, "break;")
}

func TestGenerateClosureInLoop(t *testing.T) {
	src := `
		(def fs (loop [i 0 acc []]
		  (if (< i 3) (recur (+ i 1) (push acc (fn [] i))) acc)))
		(print (map (fn [f] (f)) fs))
	`
	out := program(t, Python, src)
	assert.Contains(t, out, "(h_i__")
	assert.Regexp(t, `def _mk[0-9]+\(h_i__[0-9]+\):`, out)
	assert.Regexp(t, `_f[0-9]+ = _mk[0-9]+\(h_i__[0-9]+\)`, out)

	out = program(t, JavaScript, src)
	assert.NotContains(t, out, "_mk")
}

func TestGenerateMatch(t *testing.T) {
	src := `(print (match [1 2 3] [a & rest] rest _ :none))`
	out := program(t, Python, src)
	assert.Contains(t, out, `["l", [["b"]], ["b"]]`)
	assert.Contains(t, out, `rt_kw("none")`)
	assert.Regexp(t, `if _m[0-9]+ is not None:`, out)

	out = program(t, JavaScript, "(match 5 1 :one 2 :two)")
	assert.Contains(t, out, "rt_equal(5n, 1n)")
	assert.Contains(t, out, "} else if (rt_equal(5n, 2n)) {")
	assert.Contains(t, out, "rt_nomatch(5n, 1, 1);")
}

func TestGenerateTry(t *testing.T) {
	src := `(print (try (throw {:code 1}) (catch e (get e :code))))`

	out := program(t, Python, src)
	assert.Contains(t, out, `rt_throw({"code": 1}, 1, 13)`)
	assert.Regexp(t, `except HiveThrown as _e[0-9]+:`, out)

	out = program(t, JavaScript, src)
	assert.Contains(t, out, `rt_throw(new Map([["code", 1n]]), 1, 13);`)
	assert.Regexp(t, `if \(!\(_e[0-9]+ instanceof HiveThrown\)\) throw _e[0-9]+;`, out)
}

func TestGenerateShadowedBuiltin(t *testing.T) {
	out := program(t, JavaScript, `(def len 3) (print len)`)
	assert.Contains(t, out, `let h_len = rt_builtins.get("len");`)
	assert.Contains(t, out, "h_len = 3n;")
}

func TestGenerateDefOrder(t *testing.T) {
	src := `(def x 1) (def (f) (def y x) (def x 2) (+ x y)) (print (f))`

	out := program(t, Python, src)
	assert.Contains(t, out, "    h_y__1 = h_x\n")
	assert.Contains(t, out, "    h_x__2 = 2\n")

	out = program(t, JavaScript, src)
	assert.Contains(t, out, "h_y__1 = h_x;")

	// Both branches define x, so reading it afterwards is fine.
	generate(t, Python, `(def (g c) (if c (def x 1) (def x 2)) x)`)
}

func TestGenerateLoopDefs(t *testing.T) {
	src := `
		(def ks (loop [i 0 acc []]
		  (if (< i 3) (do (def k (* i 10)) (recur (+ i 1) (push acc (fn [] k)))) acc)))
	`
	out := program(t, Python, src)
	assert.Regexp(t, `def _mk[0-9]+\(h_k__[0-9]+\):`, out)

	// Late definitions and redefinitions are only a problem for copies.
	for _, src := range []string{
		`(loop [i 0] (def k i) (def (g) k) (def k 5) (g))`,
		`(loop [i 0] (def (g) k) (def k i) (g))`,
	} {
		_, err := New(JavaScript).GenerateSource([]byte(src))
		assert.NoError(t, err, src)
	}

	// A function may call itself from a loop body.
	generate(t, Python, `(loop [i 0] (def (down n) (if (> n 0) (down (- n 1)) i)) (down 3))`)
}

func TestGenerateSpill(t *testing.T) {
	out := program(t, Python, `(def x 1) (print x (if x (do (print 1) 2) 3))`)
	// x is read before the branch runs.
	assert.Regexp(t, `_t[0-9]+ = h_x\n`, out)
}

func TestGenerateErrors(t *testing.T) {
	testCases := []struct {
		In       string
		Sentinel error
		Pos      [2]int
	}{
		{`(eval '(+ 1 2))`, ErrUnsupported, [2]int{1, 1}},
		{`(use "lib.hive")`, ErrUnsupported, [2]int{1, 6}},
		{`(print y)`, ErrUndefined, [2]int{1, 8}},
		{`(loop [i 0] (+ 1 (recur i)))`, nil, [2]int{1, 18}},
		{`(loop [i 0] (recur 1 2))`, nil, [2]int{1, 13}},
		{`(recur 1)`, nil, [2]int{1, 1}},
		{`(match 1 (f x) 2)`, nil, [2]int{1, 10}},
		{`(def m {:a 1}) (use m)`, nil, [2]int{1, 21}},
		{`(mod m (def x 1)) (use m y)`, nil, [2]int{1, 26}},
		{`(def)`, nil, [2]int{1, 1}},
		{`(fn x 1)`, nil, [2]int{1, 1}},
		{`(print z) (def z 1)`, ErrUndefined, [2]int{1, 8}},
		{`(def (f c) (if c (def x 1)) x)`, nil, [2]int{1, 29}},
		{`(loop [i 0] (def k i) (def (g) k) (def k 5) (g))`, nil, [2]int{1, 40}},
		{`(loop [i 0] (def (g) k) (def k i) (g))`, nil, [2]int{1, 22}},
	}

	for _, tc := range testCases {
		_, err := New(Python).GenerateSource([]byte(tc.In))
		require.Error(t, err, tc.In)
		assert.True(t, diag.Is(err, diag.Codegen), "%s: %v", tc.In, err)
		if tc.Sentinel != nil {
			assert.True(t, errors.Is(err, tc.Sentinel), "%s: %v", tc.In, err)
		}
		var e *diag.Error
		require.True(t, errors.As(err, &e))
		assert.Equal(t, tc.Pos, [2]int{e.Line, e.Col}, tc.In)
	}
}

func TestRuntimeCoverage(t *testing.T) {
	names := hive.NewRegistry().Names()
	require.NotEmpty(t, names)

	for _, name := range names {
		m := Mangle(name)
		assert.Contains(t, pythonRuntime, "\ndef "+m+"(", "python runtime is missing %s", name)
		assert.Contains(t, javascriptRuntime, "\nconst "+m+" = ", "javascript runtime is missing %s", name)
	}
}
