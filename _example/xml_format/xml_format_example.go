package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/macro"
	"github.com/xiam/hive/parser"
)

func printTree(node *ast.Node) {
	printIndentedTree(node, 0)
}

func printIndentedTree(node *ast.Node, indentationLevel int) {
	indent := strings.Repeat("  ", indentationLevel)
	if node.IsVector() {
		fmt.Printf("%s<%s>\n", indent, node.Type())
		children := node.List()
		for i := range children {
			printIndentedTree(children[i], indentationLevel+1)
		}
		fmt.Printf("%s</%s>\n", indent, node.Type())
		return
	}
	fmt.Printf("%s<%s>%v</%s>\n", indent, node.Type(), node.Value(), node.Type())
}

func main() {
	input := `
		(macro (unless c & body) '(if ~c N (do ~@body)))
		(unless F (print [89 :A :B [67 3.27]]) "Hello world!")
	`

	forest, err := parser.Parse([]byte(input))
	if err != nil {
		log.Fatal("parser.Parse:", err)
	}

	// Trees are printed after expansion, so macro calls show up as the
	// forms they stand for.
	if forest, err = macro.Expand(forest); err != nil {
		log.Fatal("macro.Expand:", err)
	}

	for _, node := range forest {
		printTree(node)
	}
}
