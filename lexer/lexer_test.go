package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xiam/hive/diag"
)

func TestScanner(t *testing.T) {
	testCases := []string{
		`1`,

		`-1 -2.22`,

		`+ 1 1 1 1`,

		`[ [ [] ] [] []]`,

		`(+ 1 2 3)`,

		`(- 1 2 3)`,

		`(foo a b c-d-e-f "ghi")`,

		`(foo
			a :b
			c-d-e-f
			"g
			hi"
		)`,

		`(def foo (+ 3 3))`,

		`(def (sum a b) ; adds two numbers
			(+ a b))`,

		`(let [x 1 y 2]
			(|> x (+ y) str))`,

		`(macro (unless c & body) '(if ~c N (do ~@body)))`,

		`(
			"hello world!" "brave new " :world
		)`,

		`(print [:a "😊"])`,

		`{:robot #a1b2c3 :ok? T :none N}`,

		`(int? x) (!= a b) (<= 1 2 3)`,
	}

	for i := range testCases {
		tokens, err := Tokenize([]byte(testCases[i]))

		assert.NotNil(t, tokens)
		assert.NoError(t, err)
		assert.Equal(t, TokenEOF, tokens[len(tokens)-1].Type())
	}
}

func TestTokenize(t *testing.T) {
	testCases := []struct {
		In  string
		Out []TokenType
	}{
		{
			`1`,
			[]TokenType{
				TokenInt,
				TokenEOF,
			},
		},
		{
			`+
			1`,
			[]TokenType{
				TokenSymbol,
				TokenInt,
				TokenEOF,
			},
		},
		{
			`-1.23 - -x`,
			[]TokenType{
				TokenFloat,
				TokenSymbol,
				TokenSymbol,
				TokenEOF,
			},
		},
		{
			`(+
				[1
				{}])`,
			[]TokenType{
				TokenOpenExpression,
				TokenSymbol,
				TokenOpenList,
				TokenInt,
				TokenOpenMap,
				TokenCloseMap,
				TokenCloseList,
				TokenCloseExpression,
				TokenEOF,
			},
		},
		{
			`T F N Tx`,
			[]TokenType{
				TokenBool,
				TokenBool,
				TokenNull,
				TokenSymbol,
				TokenEOF,
			},
		},
		{
			`'x ~y ~@z |> #abc :kw`,
			[]TokenType{
				TokenQuote,
				TokenSymbol,
				TokenUnquote,
				TokenSymbol,
				TokenSplice,
				TokenSymbol,
				TokenPipe,
				TokenHashRef,
				TokenKeyword,
				TokenEOF,
			},
		},
		{
			"a ; comment (with [brackets]\nb",
			[]TokenType{
				TokenSymbol,
				TokenSymbol,
				TokenEOF,
			},
		},
	}

	getTokenTypes := func(tokens []Token) []TokenType {
		tt := make([]TokenType, 0, len(tokens))
		for i := range tokens {
			tt = append(tt, tokens[i].tt)
		}
		return tt
	}

	for i := range testCases {
		tokens, err := Tokenize([]byte(testCases[i].In))

		assert.NotNil(t, tokens)
		assert.NoError(t, err)

		assert.Equal(t, testCases[i].Out, getTokenTypes(tokens), "input: %q", testCases[i].In)
	}
}

func TestTokenText(t *testing.T) {
	testCases := []struct {
		In  string
		Out []string
	}{
		{`"hello world"`, []string{"hello world", ""}},
		{`"a\"b\\c\nd\te"`, []string{"a\"b\\c\nd\te", ""}},
		{`:name #hash`, []string{"name", "hash", ""}},
		{`-42 3.50`, []string{"-42", "3.50", ""}},
		{`make-adder int? |>`, []string{"make-adder", "int?", "|>", ""}},
		{`"😊x"`, []string{"😊x", ""}},
	}

	for i := range testCases {
		tokens, err := Tokenize([]byte(testCases[i].In))
		assert.NoError(t, err)

		texts := []string{}
		for _, tok := range tokens {
			texts = append(texts, tok.Text())
		}
		assert.Equal(t, testCases[i].Out, texts)
	}
}

func TestColumnAndLines(t *testing.T) {
	testCases := []struct {
		In  string
		Pos [][2]int
	}{
		{
			"",
			[][2]int{
				{1, 1},
			},
		},
		{
			"1",
			[][2]int{
				{1, 1}, {1, 2},
			},
		},
		{
			"\n\n\n\n",
			[][2]int{
				{5, 1},
			},
		},
		{
			"\n\n\nABCDF efgh\n",
			[][2]int{
				{4, 1}, {4, 7},
				{5, 1},
			},
		},
		{
			"1\n\n\t\t23456",
			[][2]int{
				{1, 1},
				{3, 3}, {3, 8},
			},
		},
		{
			"(foo \"😊\" x)",
			[][2]int{
				{1, 1}, {1, 2}, {1, 6}, {1, 10}, {1, 11}, {1, 12},
			},
		},
	}

	getTokenPositions := func(tokens []Token) [][2]int {
		ret := make([][2]int, 0, len(tokens))
		for i := range tokens {
			ret = append(ret, [2]int{tokens[i].line, tokens[i].col})
		}
		return ret
	}

	for i := range testCases {
		tokens, err := Tokenize([]byte(testCases[i].In))

		assert.NotNil(t, tokens)
		assert.NoError(t, err)

		assert.Equal(t, testCases[i].Pos, getTokenPositions(tokens), "input: %q", testCases[i].In)
	}
}

func TestLexErrors(t *testing.T) {
	testCases := []struct {
		In  string
		Pos [2]int
	}{
		{`"abc`, [2]int{1, 1}},
		{"(print\n  \"never closed)", [2]int{2, 3}},
		{`(a : b)`, [2]int{1, 4}},
		{`:`, [2]int{1, 1}},
		{`:Upper`, [2]int{1, 1}},
		{`1.`, [2]int{1, 1}},
		{`x 12abc`, [2]int{1, 3}},
		{`(a @ b)`, [2]int{1, 4}},
		{`"bad \q escape"`, [2]int{1, 6}},
		{`# x`, [2]int{1, 1}},
	}

	for i := range testCases {
		tokens, err := Tokenize([]byte(testCases[i].In))
		assert.Nil(t, tokens)
		assert.Error(t, err)

		if e, ok := err.(*diag.Error); assert.True(t, ok, "input: %q", testCases[i].In) {
			assert.Equal(t, diag.Lex, e.Kind)
			assert.Equal(t, testCases[i].Pos, [2]int{e.Line, e.Col}, "input: %q", testCases[i].In)
		}
	}
}

func TestDelimiters(t *testing.T) {
	tokens, err := Tokenize([]byte(`([{}]) x`))
	assert.NoError(t, err)

	assert.True(t, tokens[0].Opens())
	assert.Equal(t, TokenCloseExpression, tokens[0].Closer())
	assert.Equal(t, "(", tokens[0].Delimiter())

	assert.Equal(t, TokenCloseMap, tokens[2].Closer())
	assert.True(t, tokens[3].Closes())
	assert.Equal(t, "}", tokens[3].Delimiter())

	assert.False(t, tokens[6].Opens())
	assert.False(t, tokens[6].Closes())
	assert.Equal(t, TokenInvalid, tokens[6].Closer())
	assert.Equal(t, "", tokens[6].Delimiter())
	assert.Equal(t, `symbol "x" at 1:8`, tokens[6].String())
}
