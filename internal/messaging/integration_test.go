package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storygen-server/internal/messaging"
	"storygen-server/internal/models"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	tcrabbit "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"

	"github.com/docker/docker/client"
)

const testExchange = "client_events_test"

// setupRabbit поднимает брокер в контейнере и возвращает подключение.
func setupRabbit(t *testing.T) (*amqp091.Connection, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	ctx := context.Background()
	container, err := tcrabbit.Run(ctx, "rabbitmq:3.13-alpine")
	require.NoError(t, err, "Failed to start rabbitmq container")

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	conn, err := amqp091.Dial(amqpURL)
	require.NoError(t, err, "Failed to dial rabbitmq")

	cleanup := func() {
		conn.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate rabbitmq container: %v", err)
		}
	}
	return conn, cleanup
}

// bindTestQueue объявляет эксклюзивную очередь и привязывает её к
// fanout-обменнику, как это делает consumer в ws-доставке.
func bindTestQueue(t *testing.T, conn *amqp091.Connection) (<-chan amqp091.Delivery, *amqp091.Channel) {
	t.Helper()
	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "", testExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries, ch
}

func TestClientEventPublisher_DeliversJSONPayload(t *testing.T) {
	conn, cleanup := setupRabbit(t)
	defer cleanup()

	publisher, err := messaging.NewRabbitClientEventPublisher(conn, testExchange, zap.NewNop())
	require.NoError(t, err)
	defer publisher.Close()

	deliveries, ch := bindTestQueue(t, conn)
	defer ch.Close()

	userID := uuid.NewString()
	payload := models.ClientEventPayload{
		UserID: userID,
		Type:   "quota_exceeded",
		Source: models.OpFullStory.SourceTag(),
	}
	require.NoError(t, publisher.PublishClientEvent(context.Background(), payload))

	select {
	case d := <-deliveries:
		require.Equal(t, "application/json", d.ContentType)
		var got models.ClientEventPayload
		require.NoError(t, json.Unmarshal(d.Body, &got))
		require.Equal(t, userID, got.UserID)
		require.Equal(t, "quota_exceeded", got.Type)
		require.Equal(t, "ai_limit_full_story", got.Source)
	case <-time.After(10 * time.Second):
		t.Fatal("Timed out waiting for published event")
	}
}

// Fanout: каждое событие доходит до всех привязанных очередей,
// поэтому несколько инстансов сервиса видят полный поток.
func TestClientEventPublisher_FanoutReachesAllQueues(t *testing.T) {
	conn, cleanup := setupRabbit(t)
	defer cleanup()

	publisher, err := messaging.NewRabbitClientEventPublisher(conn, testExchange, zap.NewNop())
	require.NoError(t, err)
	defer publisher.Close()

	first, ch1 := bindTestQueue(t, conn)
	defer ch1.Close()
	second, ch2 := bindTestQueue(t, conn)
	defer ch2.Close()

	payload := models.ClientEventPayload{UserID: uuid.NewString(), Type: "project_deleted"}
	require.NoError(t, publisher.PublishClientEvent(context.Background(), payload))

	for i, deliveries := range []<-chan amqp091.Delivery{first, second} {
		select {
		case d := <-deliveries:
			var got models.ClientEventPayload
			require.NoError(t, json.Unmarshal(d.Body, &got))
			require.Equal(t, "project_deleted", got.Type)
		case <-time.After(10 * time.Second):
			t.Fatalf("Queue %d did not receive the fanout event", i)
		}
	}
}
