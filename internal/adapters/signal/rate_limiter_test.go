package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewMessageRateLimiter(3, time.Minute)

	assert.True(t, rl.Allow("c1"))
	assert.True(t, rl.Allow("c1"))
	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	// Another connection has its own window.
	assert.True(t, rl.Allow("c2"))
}

func TestMessageRateLimiter_WindowSlides(t *testing.T) {
	rl := NewMessageRateLimiter(1, 10*time.Millisecond)

	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Allow("c1"))
}

func TestMessageRateLimiter_ZeroLimitDisables(t *testing.T) {
	rl := NewMessageRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("c1"))
	}
}

func TestMessageRateLimiter_Forget(t *testing.T) {
	rl := NewMessageRateLimiter(1, time.Minute)
	assert.True(t, rl.Allow("c1"))
	assert.False(t, rl.Allow("c1"))

	rl.Forget("c1")
	assert.True(t, rl.Allow("c1"))
}
