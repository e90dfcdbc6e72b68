package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureSet_AddContains(t *testing.T) {
	s := NewSignatureSet(2000, 1000)

	assert.True(t, s.Add("sig1"))
	assert.False(t, s.Add("sig1"))
	assert.True(t, s.Contains("sig1"))
	assert.False(t, s.Contains("sig2"))
	assert.Equal(t, 1, s.Len())
}

func TestSignatureSet_TruncatesToMostRecent(t *testing.T) {
	s := NewSignatureSet(2000, 1000)

	for i := 0; i < 2000; i++ {
		s.Add(fmt.Sprintf("sig-%d", i))
	}
	assert.Equal(t, 2000, s.Len())

	s.Add("sig-2000")

	assert.Equal(t, 1000, s.Len())
	assert.False(t, s.Contains("sig-0"))
	assert.False(t, s.Contains("sig-1000"))
	assert.True(t, s.Contains("sig-1001"))
	assert.True(t, s.Contains("sig-2000"))
}

func TestSignatureSet_NeverExceedsLimit(t *testing.T) {
	s := NewSignatureSet(50, 20)
	for i := 0; i < 500; i++ {
		s.Add(fmt.Sprintf("s%d", i))
		assert.LessOrEqual(t, s.Len(), 50)
	}
}
