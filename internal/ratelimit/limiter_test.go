package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenDeny(t *testing.T) {
	kl := NewKeyedLimiter(0.1, 2)

	assert.True(t, kl.Allow("a@example.com"))
	assert.True(t, kl.Allow("a@example.com"))
	assert.False(t, kl.Allow("a@example.com"))

	// independent bucket per key
	assert.True(t, kl.Allow("b@example.com"))
}

func TestReset(t *testing.T) {
	kl := NewKeyedLimiter(0.1, 1)

	assert.True(t, kl.Allow("a@example.com"))
	assert.False(t, kl.Allow("a@example.com"))

	kl.Reset()
	assert.True(t, kl.Allow("a@example.com"))
}
