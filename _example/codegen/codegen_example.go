package main

import (
	"fmt"
	"log"

	"github.com/xiam/hive/codegen"
)

func main() {
	input := `
		(def (fib n)
		  (loop [i 0 a 0 b 1]
		    (if (= i n) a (recur (+ i 1) b (+ a b)))))
		(print (map fib (range 10)))
	`

	for _, target := range []codegen.Target{codegen.Python, codegen.JavaScript} {
		out, err := codegen.New(target).GenerateSource([]byte(input))
		if err != nil {
			log.Fatal("codegen.GenerateSource:", err)
		}
		fmt.Printf("==> main%s\n%s\n", target.Ext(), out)
	}
}
