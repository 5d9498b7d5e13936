package events

import "context"

// NoopProducer is used when the kafka firehose is disabled.
type NoopProducer struct{}

func NewNoopProducer() *NoopProducer { return &NoopProducer{} }

func (NoopProducer) Produce(context.Context, *RoomEvent) error { return nil }
func (NoopProducer) Close() error                              { return nil }
