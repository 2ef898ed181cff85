package messaging

import (
	"encoding/json"
	"fmt"

	"storygen-server/internal/models"
	"storygen-server/internal/ws"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ClientEventConsumer получает клиентские события из fanout-обменника и
// передает их WebSocket-менеджеру. Очередь объявляется эксклюзивной:
// каждый экземпляр сервиса получает собственную копию потока событий.
type ClientEventConsumer struct {
	conn         *amqp.Connection
	manager      *ws.ConnectionManager
	exchangeName string
	stopChannel  chan struct{}
	logger       *zap.Logger
}

// NewClientEventConsumer создает нового консьюмера клиентских событий.
func NewClientEventConsumer(conn *amqp.Connection, manager *ws.ConnectionManager, exchangeName string, logger *zap.Logger) (*ClientEventConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	return &ClientEventConsumer{
		conn:         conn,
		manager:      manager,
		exchangeName: exchangeName,
		stopChannel:  make(chan struct{}),
		logger:       logger.Named("ClientEventConsumer"),
	}, nil
}

// StartConsuming начинает прослушивание событий. Блокирующая функция,
// запускается в отдельной горутине.
func (c *ClientEventConsumer) StartConsuming() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	defer ch.Close()

	// Обменник должен совпадать с тем, что объявляет издатель.
	err = ch.ExchangeDeclare(c.exchangeName, clientEventsExchangeType, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare exchange '%s': %w", c.exchangeName, err)
	}

	q, err := ch.QueueDeclare(
		"",    // имя генерируется сервером
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare client events queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", q.Name, c.exchangeName, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"storygen-client-events", // consumer tag
		false,                    // auto-ack
		false,                    // exclusive
		false,                    // no-local
		false,                    // no-wait
		nil,                      // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Client event consumer started", zap.String("exchange", c.exchangeName), zap.String("queue", q.Name))

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				c.logger.Warn("RabbitMQ message channel closed")
				return nil
			}

			var payload models.ClientEventPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				c.logger.Error("Failed to unmarshal client event, dropping", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			if payload.UserID == "" {
				c.logger.Error("Client event without user_id, dropping", zap.String("type", payload.Type))
				_ = d.Nack(false, false)
				continue
			}

			// Оффлайн-пользователь события не получает: доставка best-effort.
			c.manager.SendToUser(payload.UserID, d.Body)
			_ = d.Ack(false)

		case <-c.stopChannel:
			c.logger.Info("Client event consumer stopping")
			return nil
		}
	}
}

// Stop останавливает консьюмер.
func (c *ClientEventConsumer) Stop() {
	close(c.stopChannel)
}
