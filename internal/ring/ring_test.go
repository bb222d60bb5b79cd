package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhinavnagar29/synctext/internal/update"
)

func TestPushPopFIFO(t *testing.T) {
	r := New()
	for i := 0; i < 10; i++ {
		assert.True(t, r.Push(update.Ext{Line: uint32(i)}))
	}
	for i := 0; i < 10; i++ {
		v, ok := r.Pop()
		assert.True(t, ok)
		assert.EqualValues(t, i, v.Line)
	}
	_, ok := r.Pop()
	assert.False(t, ok)
}

func TestPushDropsOnFull(t *testing.T) {
	r := New()
	for i := 0; i < Capacity-1; i++ {
		assert.True(t, r.Push(update.Ext{Line: uint32(i)}))
	}
	assert.False(t, r.Push(update.Ext{Line: 9999}))

	v, ok := r.Pop()
	assert.True(t, ok)
	assert.EqualValues(t, 0, v.Line)
}
