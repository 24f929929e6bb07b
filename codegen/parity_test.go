package codegen

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiam/hive"
)

var parityPrograms = map[string]string{
	"arithmetic": `
		(print (+ 1 2 3) (- 10 1 2) (* 1.5 2) (/ 7 2) (/ 9 3) (% -7 3))
		(print (* 99999999999999999999 10) (/ 1 3) (< 1 2 3) (= [1 2] [1 2]))
	`,
	"recursion": `
		(def (fact n) (if (<= n 1) 1 (* n (fact (- n 1)))))
		(print (fact 25))
	`,
	"loop": `
		(def (fib n)
		  (loop [i 0 a 0 b 1]
		    (if (= i n) a (recur (+ i 1) b (+ a b)))))
		(print (map fib (range 10)))
	`,
	"closures": `
		(def (make-adder n) (fn [x] (+ x n)))
		(def add5 (make-adder 5))
		(print (add5 10))
		(def fs (loop [i 0 acc []]
		  (if (< i 3) (recur (+ i 1) (push acc (fn [] i))) acc)))
		(print (map (fn [f] (f)) fs))
	`,
	"collections": `
		(def xs [3 1 2])
		(print (srt xs) (rev xs) (len xs) (hd xs) (tl xs))
		(print (flt (fn [x] (> x 1)) xs))
		(print (red + 0 xs))
		(def m {:a 1 :b [1 "two"]})
		(print m (get m :a) (put m :c 3) (has m :b))
	`,
	"strings": `
		(print (cat "a" "b" 1) (upr "abc") (len "hello") (spl "a,b,c" ","))
		(print (fmt "{} and {}" 1 "two"))
	`,
	"control": `
		(print (and 1 2 3) (and 1 F 3) (or F N 2) (or))
		(print (let [x 2 y (* x 3)] (+ x y)))
		(print (if 0 :yes :no) (if "" 1))
		(def (sign n) (if (< n 0) :neg (if (= n 0) :zero :pos)))
		(print (map sign [-1 0 1]))
	`,
	"match": `
		(def (describe v)
		  (match v
		    0 :zero
		    [a] (fmt "one {}" a)
		    [a & rest] (fmt "{} then {}" a rest)
		    {:name n} (cat "hi " n)
		    _ :other))
		(print (describe 0) (describe [1]) (describe [1 2 3]) (describe {:name "bo"}) (describe "x"))
	`,
	"try": `
		(print (try (throw {:code 1}) (catch e (get e :code))))
		(print (try (+ 1 2) (catch e :unreachable)))
	`,
	"pipe": `
		(print (|> [1 2 3] (map (fn [x] (+ x 1))) rev))
	`,
	"modules": `
		(mod m
		  (def (sq x) (* x x))
		  (def _hidden 1))
		(use m)
		(print (sq 4))
	`,
	"rebinding": `
		(def fs (let [a 1 f (fn [] a) a 2 g (fn [] a)] [f g]))
		(print (map (fn [h] (h)) fs))
		(print (let [f (fn [x] (* x 2)) f (fn [x] (f (+ x 1)))] (f 3)))
		(print (let [k 5] (def j k) (def k 6) [j k]))
	`,
	"def-order": `
		(def x 1)
		(def (f) (def y x) (def x 2) (+ x y))
		(print (f))
		(def base 100)
		(def (walk n)
		  (loop [i 0 acc []]
		    (if (< i n)
		      (do (def cur base) (def base i) (recur (+ i 1) (push acc [cur base])))
		      acc)))
		(print (walk 3))
	`,
	"loop-defs": `
		(def ks (loop [i 0 acc []]
		  (if (< i 3) (do (def k (* i 10)) (recur (+ i 1) (push acc (fn [] k)))) acc)))
		(print (map (fn [f] (f)) ks))
		(def (collect n)
		  (loop [i 0 acc []]
		    (if (< i n)
		      (do (def k (* i 10)) (def (get-k) k) (recur (+ i 1) (push acc get-k)))
		      acc)))
		(print (map (fn [f] (f)) (collect 3)))
	`,
	"big-division": `
		(print (/ 100000000000000000000000 7) (/ -7 2) (/ 1 3))
		(print (/ 12345678901234567890123456789 98765432109876543) (/ 9007199254740993 2))
	`,
	"macros": `
		(macro (unless c & body) '(if ~c N (do ~@body)))
		(print (unless F 1 2))
	`,
}

func runEvaluator(t *testing.T, src string) string {
	var out bytes.Buffer
	in := hive.New(hive.WithStdout(&out))
	_, err := in.Run([]byte(src))
	require.NoError(t, err)
	return out.String()
}

func runGenerated(t *testing.T, target Target, src string) string {
	interpreter := map[Target]string{Python: "python3", JavaScript: "node"}[target]
	path, err := exec.LookPath(interpreter)
	if err != nil {
		t.Skipf("%s is not available", interpreter)
	}

	code, err := New(target).GenerateSource([]byte(src))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "main"+target.Ext())
	require.NoError(t, os.WriteFile(file, code, 0o644))

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(path, file)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	require.NoError(t, cmd.Run(), stderr.String())
	return stdout.String()
}

func TestParity(t *testing.T) {
	if testing.Short() {
		t.Skip("runs external interpreters")
	}

	for name, src := range parityPrograms {
		want := runEvaluator(t, src)
		for _, target := range []Target{Python, JavaScript} {
			t.Run(name+"/"+target.String(), func(t *testing.T) {
				assert.Equal(t, want, runGenerated(t, target, src))
			})
		}
	}
}
