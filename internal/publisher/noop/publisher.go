// Package noop provides a publisher that discards every message.
package noop

import "context"

// Publisher drops all messages. Used when no event pipeline is configured.
type Publisher struct{}

// New returns a no-op Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish discards the payload and returns an empty ID.
func (*Publisher) Publish(_ context.Context, _ string, _ any) (string, error) {
	return "", nil
}
