// Command hive runs, inspects and translates HiveSpeak programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/xiam/hive"
	"github.com/xiam/hive/config"
)

const version = "hive 0.3.0"

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	conf   *config.Config
	logger *log.Logger
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hive", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	confPath := fs.String("config", config.FileName, "configuration file")
	verbose := fs.Bool("v", false, "log debug traces to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return 1
	}

	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	switch rest[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	case "version":
		fmt.Fprintln(stdout, version)
		return 0
	case "init":
		return c.exit(c.runInit(rest[1:], *confPath))
	}

	conf, err := config.Load(*confPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	c.conf = conf
	c.logger = log.New(io.Discard, "", 0)
	if *verbose || conf.Verbose {
		c.logger = log.New(stderr, "hive: ", log.Ltime)
	}
	c.logger.Printf("config: %s", conf.Path)

	switch rest[0] {
	case "run":
		return c.exit(c.runFile(rest[1:]))
	case "repl":
		return c.exit(c.runRepl(rest[1:]))
	case "compile":
		return c.exit(c.runCompile(rest[1:]))
	case "tokenize":
		return c.exit(c.runTokenize(rest[1:]))
	case "parse":
		return c.exit(c.runParse(rest[1:]))
	case "expand":
		return c.exit(c.runExpand(rest[1:]))
	}

	// hive file.hive is short for hive run file.hive.
	return c.exit(c.runFile(rest))
}

func (c *cli) exit(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(c.stderr, err)
	return 1
}

func (c *cli) interpreter() *hive.Interpreter {
	return hive.New(
		hive.WithStdin(c.stdin),
		hive.WithStdout(c.stdout),
		hive.WithStderr(c.stderr),
		hive.WithLogger(c.logger),
		hive.WithSearchPaths(c.conf.SearchPaths...),
		hive.WithMaxMacroDepth(c.conf.MacroDepth),
	)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: hive [-config hive.yml] [-v] <command> [arguments]

commands:
  run <file>                         evaluate a program
  repl                               start an interactive session
  compile [-target t] [-o out] <file>  translate a program to python or js
  tokenize <file>                    print the tokens of a file
  parse <file>                       print the syntax tree of a file
  expand <file>                      print a file after macro expansion
  init                               write a default hive.yml
  version                            print the version
`)
}
