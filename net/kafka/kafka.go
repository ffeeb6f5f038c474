package kafka

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/events"
)

// Config structure
type Config struct {
	Enabled bool
	Brokers []string
	Topics  Topics
}

// Topics maps event kinds to kafka topics
type Topics struct {
	Trades     string
	Portfolios string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

// Sink publishes ledger events on kafka, one async writer per topic
type Sink struct {
	writers map[events.Kind]messageWriter
}

func NewSink(cfg Config) (*Sink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	topics := map[events.Kind]string{
		events.KindTrade:     cfg.Topics.Trades,
		events.KindPortfolio: cfg.Topics.Portfolios,
	}
	writers := map[events.Kind]messageWriter{}
	for kind, topic := range topics {
		if topic == "" {
			continue
		}
		topic := topic
		writers[kind] = &kafkaGo.Writer{
			Addr:     kafkaGo.TCP(cfg.Brokers...),
			Topic:    topic,
			Balancer: &kafkaGo.Hash{},
			Async:    true,
			Completion: func(messages []kafkaGo.Message, err error) {
				if err != nil {
					log.Error().Err(err).Str("section", "kafka").Str("topic", topic).Int("messages", len(messages)).Msg("Unable to deliver messages")
				}
			},
		}
	}
	return &Sink{writers: writers}, nil
}

func (s *Sink) Publish(ctx context.Context, event events.Event) error {
	writer, ok := s.writers[event.Kind()]
	if !ok {
		return nil
	}
	payload, err := jsoniter.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	err = writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(event.Key()),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "kind", Value: []byte(event.Kind())},
		},
	})
	return errors.Wrap(err, fmt.Sprintf("write %s event", event.Kind()))
}

func (s *Sink) Close() error {
	var firstErr error
	for kind, writer := range s.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "close %s writer", kind)
		}
	}
	return firstErr
}
