package hive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xiam/hive/ast"
	"github.com/xiam/hive/diag"
)

// SourceExt is appended to a module path that does not name a file as
// given.
const SourceExt = ".ht"

var (
	errModuleNotFound = errors.New("module not found")
	errImportCycle    = errors.New("import cycle")
)

// Module holds the public bindings of a loaded unit.
type Module struct {
	Path     string
	Names    []string
	Bindings map[string]*Value
}

// ModuleLoader loads the unit named by path. Paths already present in
// loading are being loaded further up the stack and must be rejected.
type ModuleLoader interface {
	LoadModule(path string, loading map[string]bool) (*Module, error)
}

func moduleFromMap(path string, m *Map) *Module {
	mod := &Module{
		Path:     path,
		Names:    m.Keys(),
		Bindings: map[string]*Value{},
	}
	for _, name := range mod.Names {
		mod.Bindings[name], _ = m.Get(name)
	}
	return mod
}

// FileLoader loads modules from source files. Relative paths are looked up
// in the directory of the unit being evaluated first, then in each search
// path. Loaded modules are cached by absolute path.
type FileLoader struct {
	in    *Interpreter
	cache map[string]*Module
}

// NewFileLoader creates a loader that evaluates units with in.
func NewFileLoader(in *Interpreter) *FileLoader {
	return &FileLoader{
		in:    in,
		cache: map[string]*Module{},
	}
}

func (l *FileLoader) resolve(path string) (string, error) {
	dirs := append([]string{l.in.unitDir()}, l.in.searchPaths...)
	if filepath.IsAbs(path) {
		dirs = []string{""}
	}
	for _, dir := range dirs {
		base := filepath.Join(dir, path)
		for _, candidate := range []string{base, base + SourceExt} {
			stat, err := os.Stat(candidate)
			if err != nil || stat.IsDir() {
				continue
			}
			return filepath.Abs(candidate)
		}
	}
	return "", diag.Wrap(errModuleNotFound, diag.Load, 0, 0, "module %q not found", path)
}

// LoadModule implements ModuleLoader.
func (l *FileLoader) LoadModule(path string, loading map[string]bool) (*Module, error) {
	abs, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	if mod, ok := l.cache[abs]; ok {
		return mod, nil
	}
	if loading[abs] {
		return nil, diag.Wrap(errImportCycle, diag.Load, 0, 0, "import cycle: %s is already being loaded", abs)
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, diag.Errorf(diag.Load, 0, 0, "could not read module %q: %v", path, err)
	}

	loading[abs] = true
	defer delete(loading, abs)

	l.in.logger.Printf("load: %s", abs)

	scope := NewEnv(l.in.global)
	if err := l.in.runUnit(abs, src, scope); err != nil {
		return nil, fmt.Errorf("in module %s: %w", abs, err)
	}

	mod := moduleFromMap(abs, exports(scope))
	l.cache[abs] = mod
	return mod, nil
}

// loadModule asks the loader for path and attaches the position of the use
// form to load errors that carry none.
func (in *Interpreter) loadModule(path string, pos ast.Pos) (*Module, error) {
	mod, err := in.loader.LoadModule(path, in.loading)
	if err != nil {
		var e *diag.Error
		if errors.As(err, &e) && e.Kind == diag.Load && e.Line == 0 {
			e.Line, e.Col = pos.Line, pos.Col
		}
		return nil, err
	}
	return mod, nil
}
