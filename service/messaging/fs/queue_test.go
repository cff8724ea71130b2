package fs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
	"github.com/viant/flagly/internal/idgen"
)

type flowNote struct {
	Feature string `json:"feature"`
	Flow    string `json:"flow"`
	Kind    string `json:"kind"`
}

func countEntries(t *testing.T, fs afs.Service, location string) int {
	t.Helper()
	objects, err := fs.List(context.Background(), location)
	assert.NoError(t, err)
	return len(messageFiles(objects))
}

func TestQueue(t *testing.T) {
	fs := afs.New()
	ctx := context.Background()
	baseURL := url.Join("mem://localhost/flagly/queue", idgen.New())

	config := Config{
		BaseURL:    baseURL,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}

	queue, err := NewQueue[flowNote](fs, config)
	assert.NoError(t, err)
	assert.NotNil(t, queue)

	locations := []string{
		queue.pendingURL,
		queue.processingURL,
		queue.completedURL,
		queue.failedURL,
		queue.dlqURL,
	}
	for _, location := range locations {
		exists, err := fs.Exists(ctx, location)
		assert.NoError(t, err)
		assert.True(t, exists, fmt.Sprintf("location %s should exist", location))
	}

	notes := []flowNote{
		{Feature: "checkout", Flow: "beta", Kind: "added"},
		{Feature: "search", Flow: "ranked", Kind: "updated"},
		{Feature: "pricing", Flow: "regional", Kind: "removed"},
	}
	for i := range notes {
		err := queue.Publish(ctx, &notes[i])
		assert.NoError(t, err)
	}
	assert.Equal(t, 3, countEntries(t, fs, queue.pendingURL))

	features := map[string]bool{}
	for i := 0; i < len(notes); i++ {
		message, err := queue.Consume(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, message)

		payload := message.T()
		assert.NotNil(t, payload)
		features[payload.Feature] = true

		err = message.Ack()
		assert.NoError(t, err)
		assert.Equal(t, i+1, countEntries(t, fs, queue.completedURL))
	}
	assert.Equal(t, 3, len(features))

	// Failure path: nack moves the entry to failed, then to the DLQ once
	// the retry budget is spent
	note := flowNote{Feature: "recs", Flow: "control", Kind: "updated"}
	err = queue.Publish(ctx, &note)
	assert.NoError(t, err)

	message, err := queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(fmt.Errorf("listener unavailable")))
	assert.Equal(t, 1, countEntries(t, fs, queue.failedURL))

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(nil))

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.NotNil(t, message)
	assert.NoError(t, message.Nack(nil))

	assert.Equal(t, 1, countEntries(t, fs, queue.dlqURL))

	message, err = queue.Consume(ctx)
	assert.NoError(t, err)
	assert.Nil(t, message, "no more messages to consume")
}

func TestQueueInitialization(t *testing.T) {
	fs := afs.New()
	_, err := NewQueue[flowNote](fs, Config{})
	assert.Error(t, err, "empty base URL has to be rejected")

	baseURL := url.Join("mem://localhost/flagly/queue-init", idgen.New())
	queue, err := NewQueue[flowNote](fs, Config{BaseURL: baseURL, MaxRetries: 2})
	assert.NoError(t, err)
	assert.NotNil(t, queue)
}
