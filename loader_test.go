package hive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiam/hive/diag"
)

func writeUnits(t *testing.T, units map[string]string) string {
	dir := t.TempDir()
	for name, src := range units {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestUseFile(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"math.ht": `
			(print "loading math")
			(def base 10)
			(def _secret 2)
			(def (scale n) (* n base _secret))`,
		"main.ht": `
			(use "math")
			(use "math.ht" [base])
			(print (scale 2) base)`,
	})

	var out bytes.Buffer
	in := New(WithStdout(&out))
	_, err := in.RunFile(filepath.Join(dir, "main.ht"))
	require.NoError(t, err)

	// the module is evaluated once and cached
	assert.Equal(t, "loading math\n40 10\n", out.String())

	_, ok := in.Global().Local("_secret")
	assert.False(t, ok)
	_, ok = in.Global().Local("scale")
	assert.True(t, ok)
}

func TestUseSearchPaths(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"lib/strings.ht": `(def (shout s) (cat (upr s) "!"))`,
	})

	in := New(WithSearchPaths(filepath.Join(dir, "lib")))
	v, err := in.Run([]byte(`(use "strings" [shout]) (shout "hi")`))
	require.NoError(t, err)
	assert.Equal(t, "HI!", Format(v))
}

func TestUseRelativeToUnit(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"app/main.ht":   `(use "util") (helper)`,
		"app/util.ht":   `(use "../shared/base") (def (helper) (+ one 1))`,
		"shared/base.ht": `(def one 1)`,
	})

	v, err := New().RunFile(filepath.Join(dir, "app", "main.ht"))
	require.NoError(t, err)
	assert.Equal(t, "2", Format(v))
}

func TestUseCycle(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"a.ht":    `(use "b") (def a 1)`,
		"b.ht":    `(def b 1) (use "a")`,
		"self.ht": `(use "self")`,
	})

	_, err := New().RunFile(filepath.Join(dir, "a.ht"))
	require.Error(t, err)
	assert.True(t, diag.Is(err, diag.Load), "%v", err)
	assert.True(t, errors.Is(err, errImportCycle))

	var e *diag.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, [2]int{1, 16}, [2]int{e.Line, e.Col})

	_, err = New().RunFile(filepath.Join(dir, "self.ht"))
	assert.True(t, errors.Is(err, errImportCycle))
}

func TestUseMissing(t *testing.T) {
	_, _, err := runSource(`(def x 1)
		(use "does-not-exist")`)

	var e *diag.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, diag.Load, e.Kind)
	assert.Equal(t, [2]int{2, 8}, [2]int{e.Line, e.Col})
	assert.True(t, errors.Is(err, errModuleNotFound))
}

func TestUseModuleErrors(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"broken.ht": `(def x (undefined))`,
	})

	_, _, err := runSource(`(use "broken")`, WithSearchPaths(dir))
	assert.True(t, diag.Is(err, diag.Name))
	assert.Contains(t, err.Error(), "broken.ht")
}

type staticLoader map[string]*Module

func (l staticLoader) LoadModule(path string, loading map[string]bool) (*Module, error) {
	if mod, ok := l[path]; ok {
		return mod, nil
	}
	return nil, diag.Errorf(diag.Load, 0, 0, "no module %q", path)
}

func TestCustomLoader(t *testing.T) {
	loader := staticLoader{
		"consts": moduleFromMap("consts", NewMap().Set("pi", NewFloatValue(3.14)).Set("e", NewFloatValue(2.72))),
	}

	_, v, err := runSource(`(use "consts" pi) pi`, WithLoader(loader))
	require.NoError(t, err)
	assert.Equal(t, "3.14", Format(v))

	_, _, err = runSource(`(use "consts" tau)`, WithLoader(loader))
	assert.True(t, diag.Is(err, diag.Name))

	_, _, err = runSource(`(use "other")`, WithLoader(loader))
	var e *diag.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, [2]int{1, 6}, [2]int{e.Line, e.Col})
}
