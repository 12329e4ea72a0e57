package eventlog

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRing_AppendAndOrder verifies lines come back oldest first
func TestRing_AppendAndOrder(t *testing.T) {
	ring := New(10)
	ring.Append("first")
	ring.Append("second")
	ring.Appendf("third %d", 3)

	lines := ring.Lines()
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "first"))
	assert.True(t, strings.HasSuffix(lines[1], "second"))
	assert.True(t, strings.HasSuffix(lines[2], "third 3"))
}

// TestRing_TrimsBeyondLimit verifies the oldest lines are dropped
func TestRing_TrimsBeyondLimit(t *testing.T) {
	ring := New(3)
	for i := 1; i <= 5; i++ {
		ring.Append(fmt.Sprintf("line-%d", i))
	}

	lines := ring.Lines()
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], "line-3"))
	assert.True(t, strings.HasSuffix(lines[2], "line-5"))
	assert.Equal(t, 3, ring.Len())
}

// TestRing_DefaultLimit verifies the fallback cap
func TestRing_DefaultLimit(t *testing.T) {
	ring := New(0)
	for i := 0; i < DefaultLimit+25; i++ {
		ring.Append("x")
	}
	assert.Equal(t, DefaultLimit, ring.Len())
}

// TestRing_ConcurrentAppend verifies thread safety
func TestRing_ConcurrentAppend(t *testing.T) {
	ring := New(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ring.Append("entry")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, ring.Len())
}

// TestRing_String verifies the joined rendering
func TestRing_String(t *testing.T) {
	ring := New(5)
	ring.Append("a")
	ring.Append("b")
	assert.Equal(t, 1, strings.Count(ring.String(), "\n"))
}
