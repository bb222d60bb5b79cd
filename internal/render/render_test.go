package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhinavnagar29/synctext/internal/update"
)

func TestBuildSetsModifiedLineFromLastChange(t *testing.T) {
	c := &update.Change{Ext: update.Ext{Line: 2}}
	s := Build("doc.txt", []string{"a", "b", "c"}, nil, c, "", false)
	assert.Equal(t, 2, s.ModifiedLine)
}

func TestBuildModifiedLineIsMinusOneWithoutChange(t *testing.T) {
	s := Build("doc.txt", []string{"a"}, nil, nil, "", false)
	assert.Equal(t, -1, s.ModifiedLine)
}

func TestWriteToMarksModifiedLine(t *testing.T) {
	c := &update.Change{Ext: update.Ext{Line: 1, ColStart: -1}}
	s := Build("doc.txt", []string{"first", "second"}, []string{"bob"}, c, "", false)

	var buf strings.Builder
	WriteTo(&buf, s)
	out := buf.String()

	assert.Contains(t, out, "Line 1: second [MODIFIED]")
	assert.Contains(t, out, "Active users: bob")
}

func TestWriteToReportsNoActivePeers(t *testing.T) {
	s := Build("doc.txt", []string{"x"}, nil, nil, "", false)

	var buf strings.Builder
	WriteTo(&buf, s)

	assert.Contains(t, buf.String(), "Active users: (none)")
}

func TestWriteToReportsReceivedUpdate(t *testing.T) {
	s := Build("doc.txt", []string{"x"}, nil, nil, "bob", true)

	var buf strings.Builder
	WriteTo(&buf, s)

	assert.Contains(t, buf.String(), "Received update from bob")
}

func TestWriteToOmitsChangeDetailWhenColStartNegative(t *testing.T) {
	c := &update.Change{Ext: update.Ext{Line: 0, ColStart: -1, ColEnd: -1}}
	s := Build("doc.txt", []string{"x"}, nil, c, "", false)

	var buf strings.Builder
	WriteTo(&buf, s)

	assert.NotContains(t, buf.String(), "Change detected")
}
