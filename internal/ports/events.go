package ports

import "context"

// EventPublisher delivers audit events drained from the outbox to the broker.
// The wire format of the audit/history sink is external; the publisher only
// moves opaque payloads.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error
}
