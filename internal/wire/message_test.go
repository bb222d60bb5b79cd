package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var m UpdateMessage
	m.SetSender("alice")
	m.TimestampNs = 1234567890
	m.Line = 3
	m.ColStart = 5
	m.ColEnd = 9
	m.Op = OpReplace
	m.SetOldText("old")
	m.SetNewText("newer")

	b := Encode(&m)
	require.Len(t, b, Size)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.SenderStr())
	assert.Equal(t, uint64(1234567890), got.TimestampNs)
	assert.Equal(t, uint32(3), got.Line)
	assert.Equal(t, int32(5), got.ColStart)
	assert.Equal(t, int32(9), got.ColEnd)
	assert.Equal(t, OpReplace, got.Op)
	assert.Equal(t, "old", got.OldTextStr())
	assert.Equal(t, "newer", got.NewTextStr())
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	_, err := Decode(make([]byte, Size-1))
	require.Error(t, err)
}

func TestSetSenderTruncatesOverlongStrings(t *testing.T) {
	var m UpdateMessage
	m.SetSender(strings.Repeat("x", UserIDMax+10))
	assert.Len(t, m.SenderStr(), UserIDMax-1)
}

func TestOpKindString(t *testing.T) {
	assert.Equal(t, "insert", OpInsert.String())
	assert.Equal(t, "delete", OpDelete.String())
	assert.Equal(t, "replace", OpReplace.String())
	assert.Equal(t, "unknown", OpKind(99).String())
}
