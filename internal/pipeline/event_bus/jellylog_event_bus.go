package event_bus

import (
	"fmt"
	"github.com/asaskevich/EventBus"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// JellylogEventBus hands typed results from one pipeline stage to the next. The data pipeline
// publishes each per-file analysis as workers finish it and a single transactional subscriber
// collects them for aggregation, so results arrive one at a time in publish order.
// Payloads are JSON encoded and a subscriber never shares the publisher's slices or maps.
type JellylogEventBus[InputType any, OutputType any] interface {
	// Subscribe registers an asynchronous handler. A transactional handler runs one payload at a
	// time. Handler errors are logged, not returned.
	Subscribe(topic string, handler func(input InputType) error, transactional bool) error
	// Publish fails only when the payload cannot be encoded.
	Publish(topic string, arg OutputType) error
	// WaitAsync blocks until every asynchronous handler has returned.
	// Aggregation reads the collected results only after this returns.
	WaitAsync()
}

type JellylogEventBusImpl[InputType any, OutputType any] struct {
	eventBus EventBus.Bus
	logger   *zap.Logger
}

func NewJellylogEventBus[InputType any, OutputType any](
	eventBus EventBus.Bus,
	logger *zap.Logger,
) JellylogEventBus[InputType, OutputType] {
	return &JellylogEventBusImpl[InputType, OutputType]{
		eventBus: eventBus,
		logger:   logger,
	}
}

func (ev *JellylogEventBusImpl[InputType, OutputType]) Subscribe(
	topic string,
	handler func(input InputType) error,
	transactional bool,
) error {
	err := ev.eventBus.SubscribeAsync(
		topic,
		func(arg string) {
			var input InputType
			err := json.Unmarshal([]byte(arg), &input)
			if err != nil {
				ev.logger.Error("Failed to unmarshal input during subscription of topic",
					zap.String("topic", topic),
					zap.Error(err),
				)
				return
			}
			err = handler(input)
			if err != nil {
				ev.logger.Error("Failed to handle input during subscription of topic",
					zap.String("topic", topic),
					zap.Error(err),
				)
			}
		},
		transactional,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return nil
}

func (ev *JellylogEventBusImpl[InputType, OutputType]) Publish(
	topic string,
	arg OutputType,
) error {
	argBytes, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("failed to marshal output during publishing of topic %s: %w", topic, err)
	}
	ev.eventBus.Publish(topic, string(argBytes))
	return nil
}

func (ev *JellylogEventBusImpl[InputType, OutputType]) WaitAsync() {
	ev.eventBus.WaitAsync()
}
