package main

import (
	"fmt"
	"log"

	"github.com/xiam/hive/lexer"
)

func main() {
	input := `
		(def (area r) ; circle
			(* 3.14159 r r))
		(|> [1 2 3] (map area) (print "areas:"))
	`

	tokens, err := lexer.Tokenize([]byte(input))
	if err != nil {
		log.Fatal("lexer.Tokenize:", err)
	}

	for i, tok := range tokens {
		line, col := tok.Pos()
		lexeme := tok.Text()
		tt := tok.Type().String()

		fmt.Printf("token[%d] (type: %v, line: %d, col: %d)\n\t-> %q\n\n", i, tt, line, col, lexeme)
	}
}
