package publisher

import "context"

// Publisher represents a service for publishing listing events
type Publisher interface {
	// Publish appends a message under key to the event stream
	Publish(ctx context.Context, key string, message []byte) error

	// Close closes the publisher connection
	Close() error
}
