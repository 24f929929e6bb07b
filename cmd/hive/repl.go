package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/xiam/hive"
	"github.com/xiam/hive/parser"
)

const (
	prompt         = "hive> "
	continuePrompt = "  ... "
)

const replHelp = `:q       quit
:env     list the names defined in this session
:reset   start over with a fresh environment
:help    show this message
`

// lineReader is the part of liner.State the session needs.
type lineReader interface {
	Prompt(p string) (string, error)
	AppendHistory(item string)
}

type session struct {
	c   *cli
	in  *hive.Interpreter
	out io.Writer
}

func (c *cli) runRepl(args []string) error {
	if len(args) != 0 {
		return errUsage
	}

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)

	history := c.conf.HistoryFile()
	if f, err := os.Open(history); err == nil {
		if _, err := line.ReadHistory(f); err != nil {
			c.logger.Printf("repl: reading history: %v", err)
		}
		f.Close()
	}

	s := &session{c: c, in: c.interpreter(), out: c.stdout}
	line.SetWordCompleter(s.complete)

	fmt.Fprintf(c.stdout, "%s, :help for commands\n", version)
	err := s.loop(line)

	if f, ferr := os.Create(history); ferr == nil {
		if _, werr := line.WriteHistory(f); werr != nil {
			c.logger.Printf("repl: writing history: %v", werr)
		}
		f.Close()
	}
	return err
}

// loop reads entries until :q or end of input. An entry spans several lines
// while its brackets or strings are left open.
func (s *session) loop(r lineReader) error {
	var entry strings.Builder
	for {
		p := prompt
		if entry.Len() > 0 {
			p = continuePrompt
		}
		line, err := r.Prompt(p)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				entry.Reset()
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}

		if entry.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			r.AppendHistory(line)
			if quit := s.command(strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}

		entry.WriteString(line)
		entry.WriteByte('\n')
		src := entry.String()
		if strings.TrimSpace(src) == "" {
			entry.Reset()
			continue
		}
		if incomplete(src) {
			continue
		}
		entry.Reset()

		r.AppendHistory(strings.TrimSpace(src))
		s.eval(src)
	}
}

func (s *session) eval(src string) {
	v, err := s.in.Run([]byte(src))
	if err != nil {
		fmt.Fprintln(s.c.stderr, err)
		return
	}
	fmt.Fprintln(s.out, hive.Format(v))
}

func (s *session) command(cmd string) bool {
	switch cmd {
	case ":q", ":quit":
		return true
	case ":env":
		for _, name := range s.defined() {
			v, _ := s.in.Global().Local(name)
			fmt.Fprintf(s.out, "%s = %s\n", name, hive.Format(v))
		}
	case ":reset":
		s.in = s.c.interpreter()
		fmt.Fprintln(s.out, "environment reset")
	case ":help":
		fmt.Fprint(s.out, replHelp)
	default:
		fmt.Fprintf(s.c.stderr, "unknown command %s, :help lists commands\n", cmd)
	}
	return false
}

// defined returns the global names that are not builtins or that rebind
// one.
func (s *session) defined() []string {
	reg := s.in.Registry()
	names := []string{}
	for _, name := range s.in.Global().Names() {
		v, _ := s.in.Global().Local(name)
		if _, ok := reg.Lookup(name); ok && v.Type == hive.ValueTypeBuiltin {
			continue
		}
		names = append(names, name)
	}
	return names
}

// incomplete reports whether src ends inside a string or with brackets
// left open.
func incomplete(src string) bool {
	_, err := parser.Parse([]byte(src))
	if err == nil {
		return false
	}
	return errors.Is(err, parser.ErrUnexpectedEOF) || strings.Contains(err.Error(), "unterminated string")
}

const wordDelimiters = "()[]{} \t\n'~\""

func (s *session) complete(line string, pos int) (head string, completions []string, tail string) {
	start := strings.LastIndexAny(line[:pos], wordDelimiters) + 1
	word := line[start:pos]
	if word == "" {
		return line[:pos], nil, line[pos:]
	}

	seen := map[string]bool{}
	for _, name := range append(hive.SpecialForms(), s.in.Global().Visible()...) {
		if strings.HasPrefix(name, word) && !seen[name] {
			seen[name] = true
			completions = append(completions, name)
		}
	}
	sort.Strings(completions)
	return line[:start], completions, line[pos:]
}
