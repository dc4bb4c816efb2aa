package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool(t *testing.T) {
	t.Run("Processes enqueued jobs", func(t *testing.T) {
		pool := NewPool(2, 10)
		pool.Start()
		defer pool.Stop()

		var count atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			pool.Enqueue(JobFunc(func(context.Context) error {
				defer wg.Done()
				count.Add(1)
				return nil
			}))
		}
		wg.Wait()

		assert.Equal(t, int32(5), count.Load())
	})

	t.Run("TryEnqueue drops when the queue is full", func(t *testing.T) {
		pool := NewPool(1, 1)
		// Not started, so nothing drains the queue.

		blocker := JobFunc(func(context.Context) error { return nil })
		assert.True(t, pool.TryEnqueue(blocker))
		assert.False(t, pool.TryEnqueue(blocker))
	})

	t.Run("Stop waits for in-flight jobs", func(t *testing.T) {
		pool := NewPool(1, 1)
		pool.Start()

		started := make(chan struct{})
		var finished atomic.Bool
		pool.Enqueue(JobFunc(func(context.Context) error {
			close(started)
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			return nil
		}))

		<-started
		pool.Stop()
		assert.True(t, finished.Load())
	})
}
