package llm

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "gemini-1.5-pro")
	assert.Error(t, err)
}

// Concurrent Generate calls must not share mutable model state: each call
// configures its own model handle. The cancelled context stops the calls at
// the transport boundary, after the per-call request is built; run with the
// race detector enabled this fails if calls touch a shared handle.
func TestGeminiClient_ConcurrentGenerateCalls(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), "test-key", "gemini-1.5-pro")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			temp := float64(i) / 10
			_, err := c.Generate(ctx, "system "+strconv.Itoa(i), "user", &GenerateOptions{
				MaxTokens:   100 + i,
				Temperature: &temp,
			})
			assert.Error(t, err)
		}(i)
	}
	wg.Wait()
}
