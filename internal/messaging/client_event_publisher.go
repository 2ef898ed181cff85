// Package messaging связывает сервис с RabbitMQ: клиентские события
// проходят через fanout-обменник и доставляются WebSocket-подписчикам.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storygen-server/internal/interfaces"
	"storygen-server/internal/models"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const clientEventsExchangeType = "fanout"

// Compile-time check to ensure rabbitClientEventPublisher implements ClientEventPublisher
var _ interfaces.ClientEventPublisher = (*rabbitClientEventPublisher)(nil)

type rabbitClientEventPublisher struct {
	conn         *amqp091.Connection
	ch           *amqp091.Channel
	logger       *zap.Logger
	exchangeName string
}

// NewRabbitClientEventPublisher создает издателя клиентских событий.
// Fanout-обменник объявляется durable; повторное объявление безвредно.
func NewRabbitClientEventPublisher(conn *amqp091.Connection, exchangeName string, logger *zap.Logger) (interfaces.ClientEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for client events", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName,
		clientEventsExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare client events exchange", zap.String("exchange", exchangeName), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}

	logger.Info("Client events exchange declared", zap.String("exchange", exchangeName))

	return &rabbitClientEventPublisher{
		conn:         conn,
		ch:           ch,
		logger:       logger.Named("ClientEventPublisher"),
		exchangeName: exchangeName,
	}, nil
}

// PublishClientEvent публикует событие в fanout-обменник.
func (p *rabbitClientEventPublisher) PublishClientEvent(ctx context.Context, payload models.ClientEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal client event payload", zap.Error(err), zap.String("type", payload.Type))
		return fmt.Errorf("failed to marshal client event payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchangeName, // exchange
		"",             // routing key (не используется для fanout)
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish client event", zap.Error(err), zap.String("type", payload.Type), zap.String("userID", payload.UserID))
		return fmt.Errorf("failed to publish client event: %w", err)
	}

	p.logger.Debug("Client event published", zap.String("type", payload.Type), zap.String("userID", payload.UserID))
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *rabbitClientEventPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
