package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/flagly/internal/clock"
	"github.com/viant/flagly/internal/idgen"
	"github.com/viant/flagly/service/messaging"
)

// MessageState represents the state of a message in the filesystem queue
type MessageState string

const (
	// MessageStatePending indicates a message is waiting to be processed
	MessageStatePending MessageState = "pending"

	// MessageStateProcessing indicates a message is being processed
	MessageStateProcessing MessageState = "processing"

	// MessageStateCompleted indicates a message was successfully processed
	MessageStateCompleted MessageState = "completed"

	// MessageStateFailed indicates a message failed processing
	MessageStateFailed MessageState = "failed"
)

// Message implements messaging.Message for the filesystem queue
type Message[T any] struct {
	ID        string       `json:"id"`
	Data      T            `json:"data"`
	State     MessageState `json:"state"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Retries   int          `json:"retries"`

	queue     *Queue[T]
	processed bool
	mu        sync.Mutex
}

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack acknowledges that the message was processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processed {
		return fmt.Errorf("message already processed")
	}

	m.processed = true
	m.State = MessageStateCompleted
	m.UpdatedAt = clock.Now()

	// Move from processing to completed location
	return m.queue.completeMessage(context.Background(), m)
}

// Nack indicates that the message processing failed
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.processed {
		return fmt.Errorf("message already processed")
	}

	m.processed = true
	m.State = MessageStateFailed
	if err != nil {
		m.Error = err.Error()
	}
	m.Retries++
	m.UpdatedAt = clock.Now()

	return m.queue.failMessage(context.Background(), m)
}

// Config holds configuration for the filesystem queue
type Config struct {
	BaseURL    string        // Base location for queue entries; any afs scheme works
	MaxRetries int           // Maximum number of retry attempts
	RetryDelay time.Duration // Delay between retries
}

// DefaultConfig returns a default queue configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:    "file:///tmp/flagly/queue",
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Queue implements a filesystem-based messaging.Queue. Entries move between
// pending, processing, completed, failed and dlq locations as their state
// changes, so an operator can inspect in-flight notifications with plain
// storage tooling.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingURL    string
	processingURL string
	completedURL  string
	failedURL     string
	dlqURL        string
	mu            sync.Mutex
}

// NewQueue creates a new filesystem-based queue
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	q := &Queue[T]{
		fs:            fs,
		config:        config,
		pendingURL:    url.Join(config.BaseURL, "pending"),
		processingURL: url.Join(config.BaseURL, "processing"),
		completedURL:  url.Join(config.BaseURL, "completed"),
		failedURL:     url.Join(config.BaseURL, "failed"),
		dlqURL:        url.Join(config.BaseURL, "dlq"),
	}

	// Ensure locations exist
	locations := []string{
		q.pendingURL,
		q.processingURL,
		q.completedURL,
		q.failedURL,
		q.dlqURL,
	}

	ctx := context.Background()
	for _, location := range locations {
		exists, _ := fs.Exists(ctx, location)
		if !exists {
			if err := fs.Create(ctx, location, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create location %s: %w", location, err)
			}
		}
	}

	return q, nil
}

// Publish adds a new message to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	message := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		State:     MessageStatePending,
		CreatedAt: clock.Now(),
		UpdatedAt: clock.Now(),
		queue:     q,
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return q.uploadMessage(ctx, url.Join(q.pendingURL, q.filename(message.ID)), data)
}

// Consume retrieves and processes a message from the queue. It returns
// (nil, nil) when no message is available.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	// First, check if there are any failed messages to retry
	retryMessage, err := q.checkFailedMessages(ctx)
	if err != nil {
		return nil, err
	}
	if retryMessage != nil {
		return retryMessage, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	pendingFiles := messageFiles(objects)
	if len(pendingFiles) == 0 {
		return nil, nil
	}

	// Process the oldest message (by listing order)
	object := pendingFiles[0]
	message, err := q.readMessageFromURL(ctx, object.URL())
	if err != nil {
		// Move invalid message out of the way
		destURL := url.Join(q.failedURL, fmt.Sprintf("invalid-%s", object.Name()))
		_ = q.fs.Move(ctx, object.URL(), destURL)
		return nil, err
	}

	message.State = MessageStateProcessing
	message.UpdatedAt = clock.Now()
	message.queue = q

	if err = q.relocate(ctx, message, url.Join(q.processingURL, object.Name()), object.URL()); err != nil {
		return nil, err
	}
	return message, nil
}

// checkFailedMessages looks for failed messages eligible for retry
func (q *Queue[T]) checkFailedMessages(ctx context.Context) (*Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.failedURL, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list failed messages: %w", err)
	}
	failedFiles := messageFiles(objects)
	if len(failedFiles) == 0 {
		return nil, nil
	}

	object := failedFiles[0]
	message, err := q.readMessageFromURL(ctx, object.URL())
	if err != nil {
		destURL := url.Join(q.dlqURL, fmt.Sprintf("invalid-%s", object.Name()))
		_ = q.fs.Move(ctx, object.URL(), destURL)
		return nil, err
	}

	// Retry budget exhausted, park the message in the DLQ
	if message.Retries > q.config.MaxRetries {
		destURL := url.Join(q.dlqURL, object.Name())
		if err = q.fs.Move(ctx, object.URL(), destURL); err != nil {
			return nil, fmt.Errorf("failed to move message to DLQ: %w", err)
		}
		return nil, nil
	}

	message.State = MessageStateProcessing
	message.UpdatedAt = clock.Now()
	message.queue = q

	if err = q.relocate(ctx, message, url.Join(q.processingURL, object.Name()), object.URL()); err != nil {
		return nil, err
	}
	return message, nil
}

// completeMessage moves a message to the completed location
func (q *Queue[T]) completeMessage(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	filename := q.filename(m.ID)
	return q.relocateData(ctx, m, url.Join(q.completedURL, filename), url.Join(q.processingURL, filename))
}

// failMessage handles a failed message (retry or move to DLQ)
func (q *Queue[T]) failMessage(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	filename := q.filename(m.ID)
	destURL := url.Join(q.failedURL, filename)
	if m.Retries > q.config.MaxRetries {
		destURL = url.Join(q.dlqURL, filename)
	}
	return q.relocateData(ctx, m, destURL, url.Join(q.processingURL, filename))
}

// relocate serialises the message to destURL and removes sourceURL.
func (q *Queue[T]) relocate(ctx context.Context, m *Message[T], destURL, sourceURL string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err = q.uploadMessage(ctx, destURL, data); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", destURL, err)
	}
	if err = q.fs.Delete(ctx, sourceURL); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", sourceURL, err)
	}
	return nil
}

// relocateData behaves like relocate but tolerates an absent source.
func (q *Queue[T]) relocateData(ctx context.Context, m *Message[T], destURL, sourceURL string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err = q.uploadMessage(ctx, destURL, data); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", destURL, err)
	}
	if exists, _ := q.fs.Exists(ctx, sourceURL); exists {
		if err = q.fs.Delete(ctx, sourceURL); err != nil {
			return fmt.Errorf("failed to delete message %s: %w", sourceURL, err)
		}
	}
	return nil
}

// messageFiles filters listing output down to queue entries
func messageFiles(objects []storage.Object) []storage.Object {
	var files []storage.Object
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			files = append(files, object)
		}
	}
	return files
}

// filename generates a consistent filename for a message
func (q *Queue[T]) filename(id string) string {
	return fmt.Sprintf("%s.json", id)
}

// uploadMessage abstracts the common operation of uploading message data
func (q *Queue[T]) uploadMessage(ctx context.Context, location string, data []byte) error {
	return q.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewBuffer(data))
}

// readMessageFromURL abstracts the common operation of reading and unmarshaling a message
func (q *Queue[T]) readMessageFromURL(ctx context.Context, location string) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", location, err)
	}

	var message Message[T]
	if err = json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", location, err)
	}
	return &message, nil
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
