package change

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhinavnagar29/synctext/internal/wire"
)

func fixedClock(n uint64) func() uint64 {
	return func() uint64 { return n }
}

func TestDetectNoChange(t *testing.T) {
	changes, last := Detect([]string{"abc"}, []string{"abc"}, "u1", "t", fixedClock(1))
	assert.Empty(t, changes)
	assert.Nil(t, last)
}

func TestDetectInsertWithinLine(t *testing.T) {
	changes, last := Detect([]string{"abc"}, []string{"aXbc"}, "u1", "t", fixedClock(1))
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, wire.OpInsert, c.Op)
	assert.EqualValues(t, 1, c.ColStart)
	assert.EqualValues(t, 1, c.ColEnd)
	assert.Equal(t, "", c.OldText)
	assert.Equal(t, "X", c.NewText)
	require.NotNil(t, last)
}

func TestDetectDeleteWithinLine(t *testing.T) {
	changes, _ := Detect([]string{"aXbc"}, []string{"abc"}, "u1", "t", fixedClock(1))
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, wire.OpDelete, c.Op)
	assert.Equal(t, "X", c.OldText)
	assert.Equal(t, "", c.NewText)
}

func TestDetectReplaceWholeLine(t *testing.T) {
	changes, _ := Detect([]string{"hello world"}, []string{"HELLO world"}, "a", "t", fixedClock(1))
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, wire.OpReplace, c.Op)
	assert.EqualValues(t, 0, c.ColStart)
	assert.EqualValues(t, 4, c.ColEnd)
	assert.Equal(t, "hello", c.OldText)
	assert.Equal(t, "HELLO", c.NewText)
}

func TestDetectAppendedLine(t *testing.T) {
	changes, _ := Detect([]string{"x", "y"}, []string{"x", "y", "z"}, "u1", "t", fixedClock(5))
	require.Len(t, changes, 1)
	c := changes[0]
	assert.EqualValues(t, 2, c.Line)
	assert.Equal(t, wire.OpInsert, c.Op)
	assert.Equal(t, "z", c.NewText)
}

func TestDetectIgnoresTrailingEmptyAppend(t *testing.T) {
	changes, last := Detect([]string{"x"}, []string{"x", ""}, "u1", "t", fixedClock(1))
	assert.Empty(t, changes)
	assert.Nil(t, last)
}

func TestDetectTruncatedLine(t *testing.T) {
	changes, _ := Detect([]string{"x", "y", "z"}, []string{"x", "y"}, "u1", "t", fixedClock(1))
	require.Len(t, changes, 1)
	c := changes[0]
	assert.EqualValues(t, 2, c.Line)
	assert.Equal(t, wire.OpDelete, c.Op)
	assert.Equal(t, "z", c.OldText)
}

func TestDetectIgnoresTrailingEmptyTruncation(t *testing.T) {
	changes, last := Detect([]string{"x", ""}, []string{"x"}, "u1", "t", fixedClock(1))
	assert.Empty(t, changes)
	assert.Nil(t, last)
}
