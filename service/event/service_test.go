package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/afs/url"
	"github.com/viant/flagly/internal/idgen"
	"github.com/viant/flagly/service/messaging/fs"
)

type flowChanged struct {
	Feature string
	From    string
	To      string
}

func TestServiceTypedPublish(t *testing.T) {
	service, err := New("memory")
	assert.NoError(t, err)
	defer service.Shutdown()

	received := make(chan *Event[flowChanged], 1)
	err = SetListenerOf[flowChanged](service, func(event *Event[flowChanged]) {
		received <- event
	})
	assert.NoError(t, err)

	publisher, err := PublisherOf[flowChanged](service)
	assert.NoError(t, err)

	event := NewEvent(&Context{Project: "demo", EventType: "flow.changed", Feature: "checkout", Flow: "beta"},
		flowChanged{Feature: "checkout", From: "default", To: "beta"})
	err = publisher.Publish(context.Background(), event)
	assert.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, "checkout", got.Data.Feature)
		assert.Equal(t, "beta", got.Data.To)
		assert.Equal(t, "flow.changed", got.Context.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("typed listener did not receive event")
	}
}

func TestServiceFanOut(t *testing.T) {
	service, err := New("memory")
	assert.NoError(t, err)
	defer service.Shutdown()

	received := make(chan *Event[any], 1)
	service.SetListener(func(event *Event[any]) {
		received <- event
	})

	publisher, err := PublisherOf[flowChanged](service)
	assert.NoError(t, err)

	event := NewEvent(&Context{EventType: "flow.changed", Feature: "search"},
		flowChanged{Feature: "search", From: "ranked", To: "default"})
	err = publisher.Publish(context.Background(), event)
	assert.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, "flow.changed", got.Context.EventType)
		data, ok := got.Data.(flowChanged)
		assert.True(t, ok)
		assert.Equal(t, "search", data.Feature)
	case <-time.After(2 * time.Second):
		t.Fatal("untyped listener did not receive event")
	}
}

func TestServiceFsVendor(t *testing.T) {
	baseURL := url.Join("mem://localhost/flagly/events", idgen.New())
	service, err := New("fs", WithNewFsQueueConfig(func(name string) fs.Config {
		config := fs.DefaultConfig()
		config.BaseURL = url.Join(baseURL, name)
		return config
	}))
	assert.NoError(t, err)
	defer service.Shutdown()

	received := make(chan *Event[flowChanged], 1)
	err = SetListenerOf[flowChanged](service, func(event *Event[flowChanged]) {
		received <- event
	})
	assert.NoError(t, err)

	publisher, err := PublisherOf[flowChanged](service)
	assert.NoError(t, err)

	event := NewEvent(&Context{EventType: "flow.changed", Feature: "pricing"},
		flowChanged{Feature: "pricing", From: "default", To: "regional"})
	err = publisher.Publish(context.Background(), event)
	assert.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, "pricing", got.Data.Feature)
	case <-time.After(5 * time.Second):
		t.Fatal("fs backed listener did not receive event")
	}
}

func TestServiceVendorValidation(t *testing.T) {
	_, err := New("kafka")
	assert.Error(t, err)

	_, err = New("fs")
	assert.Error(t, err, "fs vendor without a queue config factory has to be rejected")
}
