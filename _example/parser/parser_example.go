package main

import (
	"log"
	"os"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/parser"
)

func main() {
	input := `(def point {:x 89 :y [67 3.27]}) (match point {:x x} (print x "Hello world!" 😊))`

	forest, err := parser.Parse([]byte(input))
	if err != nil {
		log.Fatal("parser.Parse:", err)
	}

	for _, node := range forest {
		ast.Print(os.Stdout, node)
	}
}
