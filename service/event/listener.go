package event

import (
	"context"
	"log"
	"time"
)

// idlePollDelay paces the consume loop when the backing queue reports no
// pending message instead of blocking (the fs vendor does that).
const idlePollDelay = 50 * time.Millisecond

type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T])) *Listener[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (l *Listener[T]) Stop() {
	l.cancel()
}

func (l *Listener[T]) Start() {
	go func() {
		for {
			select {
			case <-l.ctx.Done():
				return
			default:
			}
			event, err := l.publisher.Consume(l.ctx)
			if err != nil {
				if l.ctx.Err() != nil {
					return
				}
				log.Printf("failed to consume event: %v", err)
				time.Sleep(idlePollDelay)
				continue
			}
			if event == nil {
				time.Sleep(idlePollDelay)
				continue
			}
			l.handler(event)
		}
	}()
}
