package interfaces

import (
	"context"

	"storygen-server/internal/models"
)

// ClientEventPublisher defines the interface for publishing events that
// should reach the user's active WebSocket sessions (RabbitMQ fanout).
type ClientEventPublisher interface {
	// PublishClientEvent sends the event payload to the client events exchange.
	PublishClientEvent(ctx context.Context, payload models.ClientEventPayload) error

	// Close releases the underlying channel/connection resources.
	Close() error
}
