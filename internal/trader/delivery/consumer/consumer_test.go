package consumer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"stock-auto-trader/internal/trader/config"
	"stock-auto-trader/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type countingProcessor struct {
	tasks   atomic.Int64
	retries atomic.Int64
}

func (p *countingProcessor) ProcessTask(ctx context.Context) {
	p.tasks.Add(1)
	// stands in for the blocking stream read
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Millisecond):
	}
}

func (p *countingProcessor) ProcessRetries(context.Context) {
	p.retries.Add(1)
}

func TestRedisConsumer(t *testing.T) {
	cfg := config.Default()
	cfg.Stream.SellEvaluationTimeout = 50 * time.Millisecond
	cfg.Stream.SellEvaluationRetryInterval = 10 * time.Millisecond

	t.Run("runs both handlers until stopped", func(t *testing.T) {
		p := &countingProcessor{}
		c := NewRedisConsumer(&cfg, p, logger.NewNop())
		c.Start(context.Background())

		assert.Eventually(t, func() bool {
			return p.tasks.Load() > 1 && p.retries.Load() > 1
		}, time.Second, 5*time.Millisecond)

		c.Stop()
		tasks := p.tasks.Load()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, tasks, p.tasks.Load())
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		p := &countingProcessor{}
		c := NewRedisConsumer(&cfg, p, logger.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		c.Start(ctx)

		assert.Eventually(t, func() bool { return p.tasks.Load() > 0 }, time.Second, 5*time.Millisecond)
		cancel()

		done := make(chan struct{})
		go func() {
			c.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop")
		}
	})
}
