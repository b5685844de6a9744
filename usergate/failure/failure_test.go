package failure

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	first := New(CodeUserConflict, "first", "Requested User Name", "x")
	second := New(CodeGroupConflict, "second")

	agg := Aggregate([]*Error{first, second})
	require.NotNil(t, agg)
	assert.Equal(t, CodeUserConflict, agg.Code)
	assert.Len(t, agg.Associated, 1)
	assert.Equal(t, CodeGroupConflict, agg.Associated[0].Code)
	assert.Empty(t, first.Associated)

	assert.Nil(t, Aggregate(nil))
}

func TestErrors(t *testing.T) {
	agg := Aggregate([]*Error{New("a", "a"), New("b", "b"), New("c", "c")})

	all := agg.Errors()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Code)
	assert.Empty(t, all[0].Associated)
	assert.Equal(t, "c", all[2].Code)
}

func TestAttr(t *testing.T) {
	e := New(CodeCommandFailed, "Command failed.", "Command", "false", "Exit Code", "1")

	value, ok := e.Attr("Exit Code")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	_, ok = e.Attr("Missing")
	assert.False(t, ok)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("exec: not found")
	e := New(CodeCommandFailed, "Command failed.").WithCause(cause)

	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "exec: not found")
}

func TestFormat(t *testing.T) {
	agg := Aggregate([]*Error{
		New(CodeUserConflict, "Unsolvable user ID/Name conflict.", "Requested User ID", "2000").
			WithRemediation("Remove one of the conflicting users."),
		New(CodeUserConflict, "Unsolvable user ID/Name conflict.", "Requested User ID", "2001"),
	})

	var out strings.Builder
	require.NoError(t, Format(&out, agg))

	text := out.String()
	assert.Contains(t, text, "error-user-conflict: Unsolvable user ID/Name conflict.\n")
	assert.Contains(t, text, "  Requested User ID : 2000\n")
	assert.Contains(t, text, "  Requested User ID : 2001\n")
	assert.Contains(t, text, "  remediation: Remove one of the conflicting users.\n")
}
