package events

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher decouples publishers from sinks through a bounded queue.
// Publish never blocks: when the queue is full the event is dropped and logged.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Event
	timeout time.Duration
	once    sync.Once
	done    chan struct{}
}

func NewDispatcher(queueSize int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Event, queueSize),
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

func (d *Dispatcher) Publish(_ context.Context, event Event) error {
	select {
	case <-d.done:
		log.Warn().Str("section", "events").Str("kind", string(event.Kind())).Str("key", event.Key()).Msg("Dispatcher closed, event dropped")
		return nil
	default:
	}
	select {
	case d.queue <- event:
	default:
		log.Warn().Str("section", "events").Str("kind", string(event.Kind())).Str("key", event.Key()).Msg("Event queue full, event dropped")
	}
	return nil
}

// Process delivers queued events until the context is cancelled, then drains what is left
func (d *Dispatcher) Process(ctx context.Context, wait *sync.WaitGroup) {
	defer wait.Done()
	log.Info().Str("worker", "event_dispatcher").Str("action", "start").Msg("Event dispatcher - started")
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-ctx.Done():
			d.once.Do(func() { close(d.done) })
			for {
				select {
				case event := <-d.queue:
					d.deliver(event)
				default:
					log.Info().Str("worker", "event_dispatcher").Str("action", "stop").Msg("Event dispatcher - stopped")
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			log.Error().Err(err).
				Str("section", "events").
				Str("kind", string(event.Kind())).
				Str("key", event.Key()).
				Msg("Unable to publish event")
		}
	}
}
