package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootSet(t *testing.T) {
	var s rootSet
	s = s.add(3).add(70).add(3)

	assert.True(t, s.has(3))
	assert.True(t, s.has(70))
	assert.False(t, s.has(4))
	assert.False(t, s.has(500))
	assert.Equal(t, 2, s.count())
	assert.Equal(t, []int{3, 70}, s.members())

	var o rootSet
	o = o.add(1)
	u := s.union(o)
	assert.Equal(t, []int{1, 3, 70}, u.members())
	assert.Equal(t, 2, s.count(), "union does not mutate")

	// Trailing zero words do not change the key
	a := rootSet{0x5}
	b := rootSet{0x5, 0}
	assert.Equal(t, a.key(), b.key())
	assert.NotEqual(t, a.key(), o.key())
	assert.Equal(t, "", rootSet(nil).key())
}
