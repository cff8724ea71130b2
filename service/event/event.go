package event

import (
	"time"

	"github.com/viant/flagly/internal/clock"
)

// Context carries flag routing metadata alongside an event payload.
type Context struct {
	Project   string `json:"project,omitempty"`
	Source    string `json:"source,omitempty"`
	EventType string `json:"eventType"`
	Feature   string `json:"feature,omitempty"`
	Flow      string `json:"flow,omitempty"`
	ElapsedMs int    `json:"elapsedMs,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
