package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/codegen"
	"github.com/xiam/hive/config"
	"github.com/xiam/hive/lexer"
	"github.com/xiam/hive/macro"
	"github.com/xiam/hive/parser"
)

var errUsage = errors.New("invalid arguments, see hive help")

func oneFile(args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	return args[0], nil
}

func (c *cli) runFile(args []string) error {
	path, err := oneFile(args)
	if err != nil {
		return err
	}
	_, err = c.interpreter().RunFile(path)
	return err
}

// runCompile translates a file. The target may be given with -target or
// as a second argument.
func (c *cli) runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	targetName := fs.String("target", c.conf.Target, "python or js")
	output := fs.String("o", "", "output file, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	switch len(rest) {
	case 1:
	case 2:
		*targetName = rest[1]
	default:
		return errUsage
	}
	target, err := codegen.ParseTarget(*targetName)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}
	forest, err := parser.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", rest[0], err)
	}
	x := macro.NewExpander(macro.NewTable(),
		macro.WithMaxDepth(c.conf.MacroDepth),
		macro.WithLogger(c.logger),
	)
	if forest, err = x.ExpandAll(forest); err != nil {
		return fmt.Errorf("%s: %w", rest[0], err)
	}

	out, err := codegen.New(target, codegen.WithLogger(c.logger)).Generate(forest)
	if err != nil {
		return fmt.Errorf("%s: %w", rest[0], err)
	}
	if *output == "" {
		_, err = c.stdout.Write(out)
		return err
	}
	c.logger.Printf("compile: writing %s", *output)
	return os.WriteFile(*output, out, 0o644)
}

func (c *cli) runTokenize(args []string) error {
	path, err := oneFile(args)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, tok := range tokens {
		line, col := tok.Pos()
		fmt.Fprintf(c.stdout, "%d:%d\t%s\t%q\n", line, col, tok.Type(), tok.Text())
	}
	return nil
}

func (c *cli) runParse(args []string) error {
	path, err := oneFile(args)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	forest, err := parser.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, n := range forest {
		ast.Print(c.stdout, n)
	}
	return nil
}

func (c *cli) runExpand(args []string) error {
	path, err := oneFile(args)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	forest, err := parser.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if forest, err = c.interpreter().Expand(forest); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, n := range forest {
		fmt.Fprintf(c.stdout, "%s\n", ast.Encode(n))
	}
	return nil
}

func (c *cli) runInit(args []string, path string) error {
	if len(args) != 0 {
		return errUsage
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Write(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "wrote %s\n", path)
	return nil
}
