package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flowNote struct {
	Feature string
	Flow    string
	Kind    string
}

func TestQueue(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[flowNote](config)

	ctx := context.Background()
	note := flowNote{
		Feature: "checkout",
		Flow:    "beta",
		Kind:    "updated",
	}

	err := queue.Publish(ctx, &note)
	assert.NoError(t, err)
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.Equal(t, 0, queue.Size())

	payload := message.T()
	assert.Equal(t, note.Feature, payload.Feature)
	assert.Equal(t, note.Flow, payload.Flow)
	assert.Equal(t, note.Kind, payload.Kind)

	err = message.Ack()
	assert.NoError(t, err)

	// Second ack on the same message has to fail
	err = message.Ack()
	assert.Error(t, err)
}

func TestQueueRetries(t *testing.T) {
	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[flowNote](config)

	ctx := context.Background()
	note := flowNote{Feature: "search", Flow: "ranked", Kind: "added"}

	err := queue.Publish(ctx, &note)
	assert.NoError(t, err)

	// First attempt
	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(nil))

	time.Sleep(20 * time.Millisecond)

	// Second attempt
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(nil))

	time.Sleep(20 * time.Millisecond)

	// Final attempt
	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(fmt.Errorf("still failing")))

	time.Sleep(20 * time.Millisecond)

	// Retry budget spent, message lands in the dead letter queue
	assert.Equal(t, 0, queue.Size())
	assert.Equal(t, 1, queue.DLQSize())
}

func TestQueueConcurrency(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	queue := NewQueue[flowNote](config)

	ctx := context.Background()
	concurrency := 10
	notesPerProducer := 10

	var wg sync.WaitGroup
	wg.Add(concurrency * 2)

	var consumedCount int
	var consumedMu sync.Mutex

	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < notesPerProducer; j++ {
				message, err := queue.Consume(ctx)
				if err != nil {
					t.Errorf("consume: %v", err)
					continue
				}
				assert.NoError(t, message.Ack())
				consumedMu.Lock()
				consumedCount++
				consumedMu.Unlock()
			}
		}()
	}

	for i := 0; i < concurrency; i++ {
		go func(producerID int) {
			defer wg.Done()
			for j := 0; j < notesPerProducer; j++ {
				note := flowNote{
					Feature: fmt.Sprintf("feature-%d", producerID),
					Flow:    fmt.Sprintf("flow-%d", j),
					Kind:    "updated",
				}
				if err := queue.Publish(ctx, &note); err != nil {
					t.Errorf("publish: %v", err)
				}
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("test timed out")
	}

	assert.Equal(t, concurrency*notesPerProducer, consumedCount)
	assert.Equal(t, 0, queue.Size())
}

func TestQueueContextCancellation(t *testing.T) {
	queue := NewQueue[flowNote](DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	note := flowNote{Feature: "checkout"}
	err := queue.Publish(ctx, &note)
	assert.Error(t, err)

	ctxWithTimeout, cancelTimeout := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelTimeout()

	_, err = queue.Consume(ctxWithTimeout)
	assert.Error(t, err)

	// Queue stays usable after a cancelled call
	emptyCtx := context.Background()
	err = queue.Publish(emptyCtx, &note)
	assert.NoError(t, err)

	message, err := queue.Consume(emptyCtx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
}
