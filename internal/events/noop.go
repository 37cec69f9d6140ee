package events

import "context"

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

var _ Publisher = (*NoopPublisher)(nil)

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (*NoopPublisher) Publish(ctx context.Context, subject string, event any) error {
	return nil
}

func (*NoopPublisher) Close() {}
