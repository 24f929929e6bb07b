package hive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiam/hive/diag"
)

func runSource(src string, opts ...Option) (string, *Value, error) {
	var out bytes.Buffer
	in := New(append([]Option{WithStdout(&out)}, opts...)...)
	v, err := in.Run([]byte(src))
	return out.String(), v, err
}

func TestEval(t *testing.T) {
	testCases := []struct {
		In  string
		Out string
	}{
		{`(+ 1 2 3)`, `6`},
		{`(+)`, `0`},
		{`(*)`, `1`},
		{`(- 5)`, `-5`},
		{`(- 10 1 2)`, `7`},
		{`(/ 10 2)`, `5`},
		{`(/ 7 2)`, `3.5`},
		{`(/ 1 3)`, `0.3333333333333333`},
		{`(/ 4)`, `0.25`},
		{`(/ 9.0 3)`, `3.0`},
		{`(% -7 3)`, `2`},
		{`(% 7 -3)`, `-2`},
		{`(% 7.5 2)`, `1.5`},
		{`(* 1.5 2)`, `3.0`},
		{`(+ 1 2.0)`, `3.0`},
		{`(* 99999999999999999999 10)`, `999999999999999999990`},
		{`(< 1 2 3)`, `T`},
		{`(< 1 3 2)`, `F`},
		{`(>= 3 3 1.5)`, `T`},
		{`(= 1 1.0)`, `T`},
		{`(= [1 2] [1 2])`, `T`},
		{`(= {:a 1 :b 2} {:b 2 :a 1})`, `T`},
		{`(!= 1 2)`, `T`},
		{`(= 1 T)`, `F`},

		{`(if 0 :yes :no)`, `:no`},
		{`(if 0.0 1 2)`, `2`},
		{`(if "" 1)`, `N`},
		{`(if [] 1 2)`, `2`},
		{`(if {} 1 2)`, `2`},
		{`(if "F" 1 2)`, `1`},
		{`(not N)`, `T`},

		{`(and 1 2 3)`, `3`},
		{`(and 1 F 3)`, `F`},
		{`(and)`, `T`},
		{`(or N F)`, `F`},
		{`(or)`, `N`},
		{`(or N 2 (undefined))`, `2`},
		{`(and N (undefined))`, `N`},

		{`(let [x 1 y (+ x 1)] (* x y))`, `2`},
		{`(let [x 1] (let [x 2] x))`, `2`},
		{`(def x 1) (let [x 2] x) x`, `1`},
		{`(let [a 1 f (fn [] a) a 2 g (fn [] a)] [(f) (g)])`, `[1 2]`},
		{`(let [f (fn [x] (* x 2)) f (fn [x] (f (+ x 1)))] (f 3))`, `8`},
		{`(let [a 1 f (fn [] a) b 2] (def a 5) [(f) a])`, `[1 5]`},
		{`(loop [i 0 f (fn [] i) i 7] (f))`, `0`},
		{`(do)`, `N`},
		{`()`, `N`},
		{`(do 1 2 3)`, `3`},
		{`(def x 1) (def x 2) x`, `2`},

		{`(def (sq x) (* x x)) (sq 9)`, `81`},
		{`(def sq (fn [x] (* x x))) (sq 4)`, `16`},
		{`(def (f a & r) r) (f 1 2 3)`, `[2 3]`},
		{`(def (f a & r) r) (f 1)`, `[]`},
		{`((fn [& xs] xs))`, `[]`},
		{`(def (adder n) (fn [x] (+ x n))) ((adder 3) 4)`, `7`},
		{`(def (fact n) (if (<= n 1) 1 (* n (fact (- n 1))))) (fact 25)`, `15511210043330985984000000`},
		{`(def (counter) (let [n 10] (fn [] n))) (def c (counter)) (def n 99) (c)`, `10`},

		{`(loop [i 0 acc 0] (if (< i 100000) (recur (+ i 1) (+ acc i)) acc))`, `4999950000`},
		{`(loop [i 0] (let [j (+ i 1)] (if (< j 5) (recur j) j)))`, `5`},
		{`(loop [i 0 fs []] (if (< i 3) (recur (+ i 1) (push fs (fn [] i))) (map (fn [f] (f)) fs)))`, `[0 1 2]`},
		{`(loop [i 3] (match i 0 :done _ (recur (- i 1))))`, `:done`},
		{`(loop [i 0] (loop [j 0] (if (< j 3) (recur (+ j 1)) j)))`, `3`},

		{`(match [1 2 3] [a & r] r)`, `[2 3]`},
		{`(match [1 2] [a] :one [a b] (+ a b))`, `3`},
		{`(match {:k 1 :z 2} {:k 2} :two {:k n} n)`, `1`},
		{`(match 5 1 :one _ :other)`, `:other`},
		{`(match :b :a 1 :b 2)`, `2`},
		{`(match 'x (quote y) :y (quote x) :x)`, `:x`},
		{`(match [1 [2 3]] [_ [x y]] (* x y))`, `6`},
		{`(match "s" 1 :int "s" :str)`, `:str`},
		{`(def v 2) (match 1 v v)`, `1`},

		{`(try (throw {:code 1}) (catch e (get e :code)))`, `1`},
		{`(try 1 (catch e 2))`, `1`},
		{`(try (print "a") (throw "boom") (print "b") (catch e (cat "caught " e)))`, `caught boom`},
		{`(def (f) (throw :inner)) (try (f) (catch e e))`, `:inner`},

		{`(quote (a [b] {:c 1}))`, `[a [b] {:c 1}]`},
		{`'sym`, `sym`},
		{`(type 'sym)`, `:symbol`},
		{`(eval '(+ 1 2))`, `3`},
		{`(eval (list '+ 1 2))`, `3`},
		{`(eval [1 (quote (+ 1 1))])`, `[1 2]`},
		{`(macro (twice x) '(* 2 ~x)) (eval '(twice 4))`, `8`},

		{`(|> 3 (+ 1) (* 2))`, `8`},
		{`(|> [1 2 3] (map (fn [x] (* x x))) (red + 0))`, `14`},

		{`(mod m (def x 1) (def _y 2) (def (f) (+ x _y))) (use m) (f)`, `3`},
		{`(mod m (def x 1) (def y 2)) (use m [x]) x`, `1`},
		{`(mod m (def x 1) (def y 2)) (use m y) y`, `2`},
		{`(mod m (def x 1) (def _h 2)) (keys m)`, `[:x]`},
		{`(mod m (macro (inc v) '(+ ~v 1)) (def (f y) (inc y))) ((get m :f) 1)`, `2`},

		{`(macro (unless c & body) '(if ~c N (do ~@body))) (unless F 1 2)`, `2`},
		{`(macro (sq x) (* x x)) (sq (+ 1 2))`, `9`},

		{`{:a 1 :b 2 :a 3}`, `{:a 3 :b 2}`},
		{`[1 (+ 1 1) "x"]`, `[1 2 x]`},
		{`#abc`, `#abc`},
		{`(def x 5) (def y x) y`, `5`},
	}

	for i := range testCases {
		_, v, err := runSource(testCases[i].In)
		if assert.NoError(t, err, "input: %s", testCases[i].In) {
			assert.Equal(t, testCases[i].Out, Format(v), "input: %s", testCases[i].In)
		}
	}
}

func TestPrint(t *testing.T) {
	out, v, err := runSource(`(print 1 "a" :b [1 "x"] {:k 2.5} N T) (print) (print (/ 1.0 100000))`)
	require.NoError(t, err)
	assert.Equal(t, Null, v)
	assert.Equal(t, "1 a :b [1 x] {:k 2.5} N T\n\n1e-05\n", out)
}

func TestEvaluationOrder(t *testing.T) {
	out, _, err := runSource(`
		(def (p x) (do (print x) x))
		(+ (p 1) (p 2) (p 3))
		{:a (p 4) :b (p 5) :a (p 6)}
		(let [a (p 7) b (p 8)] a)
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n4\n5\n6\n7\n8\n", out)
}

func TestEvalErrors(t *testing.T) {
	testCases := []struct {
		In   string
		Kind diag.Kind
		Pos  [2]int
	}{
		{`(undefined-thing 1)`, diag.Name, [2]int{1, 2}},
		{"\n  (+ 1 x)", diag.Name, [2]int{2, 8}},
		{`(/ 1 0)`, diag.Runtime, [2]int{1, 1}},
		{`(% 1 0)`, diag.Runtime, [2]int{1, 1}},
		{`(/ 1.5 0.0)`, diag.Runtime, [2]int{1, 1}},
		{`(+ 1 "a")`, diag.Type, [2]int{1, 1}},
		{`(< 1 :a)`, diag.Type, [2]int{1, 1}},
		{`(1 2)`, diag.Type, [2]int{1, 1}},
		{`((fn [x] x))`, diag.Type, [2]int{1, 1}},
		{`(def (f x) x) (f 1 2)`, diag.Type, [2]int{1, 15}},
		{`(hd 1 2)`, diag.Type, [2]int{1, 1}},
		{`(recur 1)`, diag.Runtime, [2]int{1, 1}},
		{`(loop [i 0] (if (< i 1) (recur 1 2) i))`, diag.Runtime, [2]int{1, 25}},
		{`(loop [i 0] (do (recur 1) i))`, diag.Runtime, [2]int{1, 17}},
		{`(loop [i 0] (try (recur 1) (catch e e)))`, diag.Runtime, [2]int{1, 18}},
		{`(loop [i 0] ((fn [] (recur 1))))`, diag.Runtime, [2]int{1, 21}},
		{`(match 3 1 :a)`, diag.Runtime, [2]int{1, 1}},
		{`(match 3 1)`, diag.Type, [2]int{1, 1}},
		{`(let [x] x)`, diag.Type, [2]int{1, 6}},
		{`(let [1 2] 3)`, diag.Type, [2]int{1, 7}},
		{`(if 1)`, diag.Type, [2]int{1, 1}},
		{`(fn x x)`, diag.Type, [2]int{1, 1}},
		{`(try 1)`, diag.Type, [2]int{1, 1}},
		{`(macro (m) 1) m`, diag.Macro, [2]int{1, 15}},
		{`(do (unquote x))`, diag.Macro, [2]int{1, 5}},
		{`(use nothing)`, diag.Name, [2]int{1, 6}},
		{`(def m 1) (use m)`, diag.Type, [2]int{1, 16}},
		{`(mod m (def x 1)) (use m [y])`, diag.Name, [2]int{1, 27}},
		{`(eval (fn [] 1))`, diag.Type, [2]int{1, 1}},
		{`(range 1 5 0)`, diag.Runtime, [2]int{1, 1}},
		{`(int "x")`, diag.Runtime, [2]int{1, 1}},
		{`(srt [1 "a"])`, diag.Type, [2]int{1, 1}},
		{`(get {:a 1} "a")`, diag.Type, [2]int{1, 1}},
	}

	for i := range testCases {
		_, _, err := runSource(testCases[i].In)
		var e *diag.Error
		if assert.True(t, errors.As(err, &e), "input: %s: %v", testCases[i].In, err) {
			assert.Equal(t, testCases[i].Kind, e.Kind, "input: %s: %v", testCases[i].In, err)
			assert.Equal(t, testCases[i].Pos, [2]int{e.Line, e.Col}, "input: %s: %v", testCases[i].In, err)
		}
	}
}

func TestUncaughtThrow(t *testing.T) {
	_, _, err := runSource(`(def x 1)
  (throw {:code 42})`)

	var thrown *Thrown
	require.True(t, errors.As(err, &thrown))
	assert.Equal(t, "{:code 42}", Format(thrown.Value))
	assert.Equal(t, 2, thrown.Line)
	assert.Equal(t, 3, thrown.Col)
	assert.Equal(t, "uncaught throw at line 2, col 3: {:code 42}", err.Error())
}

func TestTryDoesNotCatchErrors(t *testing.T) {
	_, _, err := runSource(`(try (undefined) (catch e :caught))`)
	assert.True(t, diag.Is(err, diag.Name))
}

func TestMaxCallDepth(t *testing.T) {
	_, _, err := runSource(`(def (f n) (+ 1 (f n))) (f 1)`, WithMaxCallDepth(50))
	assert.True(t, diag.Is(err, diag.Runtime))

	_, v, err := runSource(`(def (f n) (if (= n 0) 0 (+ 1 (f (- n 1))))) (f 40)`, WithMaxCallDepth(50))
	require.NoError(t, err)
	assert.Equal(t, "40", Format(v))
}

func TestMacroDepth(t *testing.T) {
	_, _, err := runSource(`(macro (a) '(b)) (macro (b) '(a)) (a)`, WithMaxMacroDepth(8))
	assert.True(t, diag.Is(err, diag.Macro))
}

func TestStateAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	in := New(WithStdout(&out))

	_, err := in.Run([]byte(`(def (sq x) (* x x)) (macro (twice x) '(do ~x ~x))`))
	require.NoError(t, err)

	v, err := in.Run([]byte(`(twice (print (sq 3)))`))
	require.NoError(t, err)
	assert.Equal(t, Null, v)
	assert.Equal(t, "9\n9\n", out.String())

	assert.Equal(t, []string{"twice"}, in.Macros().Names())
	_, ok := in.Global().Local("sq")
	assert.True(t, ok)

	// an error aborts the current form only
	_, err = in.Run([]byte(`(undefined)`))
	assert.Error(t, err)
	v, err = in.Run([]byte(`(sq 4)`))
	require.NoError(t, err)
	assert.Equal(t, "16", Format(v))
}

func TestFunctionValues(t *testing.T) {
	_, v, err := runSource(`(def (sq x) (* x x)) sq`)
	require.NoError(t, err)
	require.Equal(t, ValueTypeFunction, v.Type)
	assert.Equal(t, "sq", v.Function().Name)
	assert.Equal(t, []string{"x"}, v.Function().Params)

	_, v, err = runSource(`(def inc (fn [x & more] x)) inc`)
	require.NoError(t, err)
	assert.Equal(t, "inc", v.Function().Name)
	assert.Equal(t, "more", v.Function().Rest)
	assert.Equal(t, "at least 1", v.Function().Arity())
}

func TestSpecialForms(t *testing.T) {
	assert.True(t, IsSpecialForm("loop"))
	assert.True(t, IsSpecialForm("|>"))
	assert.False(t, IsSpecialForm("print"))
	assert.Contains(t, SpecialForms(), "match")
}

func TestPackageEval(t *testing.T) {
	v, err := Eval([]byte(`(range 3)`))
	require.NoError(t, err)
	assert.Equal(t, "[0 1 2]", Format(v))
}
