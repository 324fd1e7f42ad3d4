package querystate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumeCheckUnlimited(t *testing.T) {
	s := New(10, -1)
	for i := 0; i < 100; i++ {
		assert.True(t, s.ConsumeCheck(), "unlimited budget should never be exhausted")
	}
}

func TestConsumeCheckBudget(t *testing.T) {
	s := New(10, 3)
	for i := 0; i < 3; i++ {
		assert.Truef(t, s.ConsumeCheck(), "expected check %d to succeed", i)
	}
	assert.False(t, s.ConsumeCheck(), "expected budget exhausted after 3 checks")
	assert.True(t, s.Exhausted())
}

func TestResetReinstatesBudget(t *testing.T) {
	s := New(10, 1)
	s.ConsumeCheck()
	s.Reset(5)
	assert.False(t, s.Exhausted(), "expected budget restored after reset")

	for i := 0; i < 5; i++ {
		s.ConsumeCheck()
	}
	assert.True(t, s.Exhausted(), "expected exhausted after consuming full new budget")
}

func TestGetPutRoundTrip(t *testing.T) {
	s := Get(100, 10)
	s.Visited.Visit(5)
	Put(s)

	s2 := Get(100, 10)
	assert.False(t, s2.Visited.Visited(5), "expected pooled state to be reset before reuse")
}

func TestResetClearsCBIndexOverride(t *testing.T) {
	s := New(10, -1)
	s.CBIndex = 0.7
	s.Reset(-1)
	assert.Equal(t, float32(-1), s.CBIndex)
}
