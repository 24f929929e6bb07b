package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	testCases := []struct {
		Err *Error
		Out string
	}{
		{
			Err: Errorf(Lex, 1, 4, "unexpected character %q", '@'),
			Out: `lex error at line 1, col 4: unexpected character '@'`,
		},
		{
			Err: Errorf(Name, 3, 10, "undefined symbol %q", "foo"),
			Out: `name error at line 3, col 10: undefined symbol "foo"`,
		},
		{
			Err: Errorf(Load, 0, 0, "cycle"),
			Out: `load error: cycle`,
		},
	}

	for i := range testCases {
		assert.Equal(t, testCases[i].Out, testCases[i].Err.Error())
	}
}

func TestKindMatching(t *testing.T) {
	sentinel := errors.New("unexpected EOF")

	err := fmt.Errorf("reading unit: %w", Wrap(sentinel, Parse, 2, 1, "unexpected EOF"))

	assert.True(t, Is(err, Parse))
	assert.False(t, Is(err, Lex))
	assert.True(t, errors.Is(err, sentinel))
	assert.Equal(t, Parse, KindOf(err))
	assert.Equal(t, KindInvalid, KindOf(errors.New("plain")))
	assert.Equal(t, "parse", Parse.String())
}
