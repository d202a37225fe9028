package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/grandstay/service-frontdesk/internal/application"
	"github.com/grandstay/service-frontdesk/internal/cache"
	"github.com/grandstay/service-frontdesk/internal/config"
	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	"github.com/grandstay/service-frontdesk/internal/domain/guest"
	invoiceDomain "github.com/grandstay/service-frontdesk/internal/domain/invoice"
	roomDomain "github.com/grandstay/service-frontdesk/internal/domain/room"
	frontdeskEvents "github.com/grandstay/service-frontdesk/internal/events"
	"github.com/grandstay/service-frontdesk/internal/repository"
	"github.com/grandstay/service-frontdesk/internal/repository/memory"
	"github.com/grandstay/service-frontdesk/internal/repository/mongostore"
	"github.com/grandstay/service-frontdesk/pkg/database"
	"github.com/grandstay/service-frontdesk/pkg/health"
	"github.com/grandstay/service-frontdesk/pkg/kafka"
	"github.com/grandstay/service-frontdesk/pkg/mq"
)

// stores bundles the repositories selected by STORE_DRIVER.
type stores struct {
	rooms    roomDomain.RoomRepository
	bookings bookingDomain.BookingRepository
	invoices invoiceDomain.InvoiceRepository
	guests   guest.Directory
	checks   map[string]health.Check
	closers  []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.ServiceConfig, log *zap.Logger) (*stores, error) {
	st := &stores{checks: map[string]health.Check{}}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		if err := openPostgres(st, cfg, log); err != nil {
			return nil, err
		}
	case config.StoreMongo:
		if err := openMongo(ctx, st, cfg, log); err != nil {
			return nil, err
		}
	case config.StoreMemory:
		openMemory(ctx, st, log)
	}

	if cfg.RedisConfig.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		availability := cache.NewRedisAvailabilityCache(client, cfg.RedisConfig.TTL)
		st.rooms = cache.NewCachedRoomRepository(st.rooms, availability, log)
		st.checks["redis"] = availability.Ping
		st.closers = append(st.closers, func() { _ = client.Close() })
		log.Info("availability cache enabled", zap.String("addr", cfg.RedisConfig.Addr))
	}
	return st, nil
}

func openPostgres(st *stores, cfg *config.ServiceConfig, log *zap.Logger) error {
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		return err
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.RoomModel{},
			&repository.GuestModel{},
			&repository.BookingModel{},
			&repository.InvoiceModel{},
		); err != nil {
			return fmt.Errorf("failed to run auto-migration: %w", err)
		}
		// GORM tags cannot express a partial index.
		if err := db.Exec(repository.ActiveRoomIndexDDL).Error; err != nil {
			return fmt.Errorf("failed to create active booking index: %w", err)
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	st.rooms = repository.NewGormRoomRepository(db)
	st.bookings = repository.NewGormBookingRepository(db)
	st.invoices = repository.NewGormInvoiceRepository(db)
	st.guests = repository.NewGormGuestDirectory(db)
	st.checks["postgres"] = sqlDB.PingContext
	st.closers = append(st.closers, func() { _ = sqlDB.Close() })
	return nil
}

func openMongo(ctx context.Context, st *stores, cfg *config.ServiceConfig, log *zap.Logger) error {
	db, err := database.ConnectMongo(ctx, cfg.MongoConfig.URI, cfg.MongoConfig.Database, log)
	if err != nil {
		return err
	}
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	st.rooms = mongostore.NewRoomStore(db)
	st.bookings = mongostore.NewBookingStore(db)
	st.invoices = mongostore.NewInvoiceStore(db)
	st.guests = mongostore.NewGuestDirectory(db)
	st.checks["mongo"] = func(ctx context.Context) error { return db.Client().Ping(ctx, nil) }
	st.closers = append(st.closers, func() { _ = db.Client().Disconnect(context.Background()) })
	return nil
}

// openMemory builds process-local stores with a small demo inventory.
func openMemory(ctx context.Context, st *stores, log *zap.Logger) {
	rooms := memory.NewRoomStore()
	guests := memory.NewGuestDirectory()

	seed := []struct {
		number   string
		category roomDomain.Category
		rate     int64
	}{
		{"101", roomDomain.CategorySingle, 8000},
		{"102", roomDomain.CategorySingle, 8000},
		{"201", roomDomain.CategoryDeluxe, 12000},
		{"301", roomDomain.CategorySuite, 25000},
	}
	for _, s := range seed {
		rm, err := roomDomain.NewRoom(s.number, s.category, s.rate, "")
		if err != nil {
			log.Warn("skipping demo room", zap.String("room_number", s.number), zap.Error(err))
			continue
		}
		_ = rooms.Save(ctx, rm)
	}

	demoGuest := guest.Guest{ID: uuid.New(), FullName: "Demo Guest", Email: "demo@example.com"}
	guests.Add(demoGuest)
	log.Warn("using in-memory stores; data is lost on restart",
		zap.Int("rooms", len(seed)),
		zap.String("demo_guest_id", demoGuest.ID.String()),
	)

	st.rooms = rooms
	st.bookings = memory.NewBookingStore()
	st.invoices = memory.NewInvoiceStore()
	st.guests = guests
}

func openPublisher(cfg *config.ServiceConfig, log *zap.Logger) (application.EventPublisher, func(), error) {
	switch cfg.EventsDriver {
	case config.EventsKafka:
		producer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		return producer, func() { _ = producer.Close() }, nil
	case config.EventsRabbitMQ:
		pub, err := mq.NewPublisher(cfg.RabbitMQConfig.URL, cfg.RabbitMQConfig.Exchange)
		if err != nil {
			return nil, nil, err
		}
		log.Info("publishing events to RabbitMQ", zap.String("exchange", cfg.RabbitMQConfig.Exchange))
		rabbit := frontdeskEvents.NewRabbitPublisher(pub)
		return rabbit, func() { _ = rabbit.Close() }, nil
	default:
		return frontdeskEvents.NopPublisher{}, func() {}, nil
	}
}
