//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/grandstay/service-frontdesk/internal/application"
	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	invoiceDomain "github.com/grandstay/service-frontdesk/internal/domain/invoice"
	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	"github.com/grandstay/service-frontdesk/internal/repository"
	"github.com/grandstay/service-frontdesk/pkg/database"
	"github.com/grandstay/service-frontdesk/pkg/kafka"
)

// startPostgres starts a PostgreSQL container, applies the SQL migrations
// and returns a connected GORM DB.
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_frontdesk",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_frontdesk",
		SSLMode:  "disable",
	}
	log := zap.NewNop()

	// Poll until the server actually accepts connections.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(cfg, log)
		return err == nil
	}, 30*time.Second, time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), "migrations", log))
	return db
}

// startMongo starts a MongoDB container and returns a database handle.
func startMongo(t *testing.T) *mongodriver.Database {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start MongoDB container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.PortEndpoint(ctx, "27017/tcp", "mongodb")
	require.NoError(t, err)

	db, err := database.ConnectMongo(ctx, endpoint, "test_frontdesk", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })
	return db
}

// startRedis starts a Redis container and returns a connected client.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

// startKafka starts a Kafka container and pre-creates the given topics.
func startKafka(t *testing.T, topics ...string) []string {
	t.Helper()
	ctx := context.Background()

	// confluent-local supports KRaft natively.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, topics...)
	return brokers
}

// frontDeskStack holds the services wired over one set of repositories.
type frontDeskStack struct {
	FrontDesk *application.FrontDeskService
	Rooms     *application.RoomService
}

func newFrontDeskStack(
	rooms roomDomain.RoomRepository,
	bookings bookingDomain.BookingRepository,
	invoices invoiceDomain.InvoiceRepository,
	guests guest.Directory,
	publisher application.EventPublisher,
) *frontDeskStack {
	logger, _ := zap.NewDevelopment()
	invoiceSvc := application.NewInvoiceService(invoices, guests, logger)
	return &frontDeskStack{
		FrontDesk: application.NewFrontDeskService(rooms, bookings, guests,
			bookingDomain.NewNightlyPricingStrategy(), invoiceSvc, publisher, "USD", logger),
		Rooms: application.NewRoomService(rooms, bookings, publisher, "USD", logger),
	}
}

// seedPostgres inserts one available room and one guest.
func seedPostgres(t *testing.T, db *gorm.DB, roomNumber string, rateCents int64) uuid.UUID {
	t.Helper()
	rm, err := roomDomain.NewRoom(roomNumber, roomDomain.CategoryDeluxe, rateCents, "integration")
	require.NoError(t, err)
	require.NoError(t, repository.NewGormRoomRepository(db).Save(context.Background(), rm))

	guestID := uuid.New()
	require.NoError(t, db.Create(&repository.GuestModel{
		ID:        guestID,
		FullName:  "Integration Guest",
		Email:     "guest@example.com",
		CreatedAt: time.Now().UTC(),
	}).Error)
	return guestID
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
