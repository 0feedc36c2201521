package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/evcenter-api/internal/application/ports"
	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/domain/repository"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/events"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/lock"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/mail"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/memory"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/mongodb"
	"github.com/jhoicas/evcenter-api/pkg/config"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

// documentStore repositorios del almacén operativo, sobre MongoDB o en memoria.
type documentStore struct {
	txRunner     reservation.TxRunner
	stock        repository.StockRepository
	reservations repository.ReservationRepository
	ledger       repository.InventoryTransactionRepository
	appointments repository.AppointmentRepository
	centers      repository.ServiceCenterRepository
	settings     repository.SettingsRepository
	close        func(context.Context) error
}

func openDocumentStore(ctx context.Context, cfg config.MongoConfig, log *logger.Logger) (*documentStore, error) {
	if cfg.URI == "" {
		log.Warn().Msg("MONGO_URI vacío: usando almacén en memoria (solo desarrollo)")
		store := memory.New(memory.Options{Transactions: cfg.Transactions != config.TxModeDisabled})
		return &documentStore{
			txRunner:     store.TxRunner(),
			stock:        store.Stock(),
			reservations: store.Reservations(),
			ledger:       store.Ledger(),
			appointments: store.Appointments(),
			centers:      store.ServiceCenters(),
			settings:     store.Settings(),
			close:        func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongodb.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("database", cfg.Database).Str("transactions", cfg.Transactions).Msg("conectado a MongoDB")
	return &documentStore{
		txRunner:     mongodb.NewTxRunner(client, db, cfg.Transactions, log),
		stock:        mongodb.NewStockRepository(db),
		reservations: mongodb.NewReservationRepository(db),
		ledger:       mongodb.NewLedgerRepository(db),
		appointments: mongodb.NewAppointmentRepository(db),
		centers:      mongodb.NewServiceCenterRepository(db),
		settings:     mongodb.NewSettingsRepository(db),
		close:        client.Disconnect,
	}, nil
}

// newLocker usa Redis si está configurado; si no, locks en proceso (una sola instancia).
func newLocker(ctx context.Context, cfg config.RedisConfig, timeout time.Duration, log *logger.Logger) (ports.Locker, func() error) {
	if cfg.Addr == "" {
		log.Warn().Msg("REDIS_ADDR vacío: locks en proceso, no apto para varias réplicas")
		return lock.NewLocal(timeout), func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr).Msg("Redis no responde; los locks fallarán hasta que vuelva")
	}
	return lock.NewRedis(client, cfg.LockTTL, timeout, log), client.Close
}

// newPublisher publica en Kafka si hay brokers configurados.
func newPublisher(cfg config.KafkaConfig, log *logger.Logger) (ports.EventPublisher, func() error) {
	if len(cfg.Brokers) == 0 {
		return ports.NopPublisher{}, func() error { return nil }
	}
	p := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, log)
	return p, p.Close
}

// newMailSender usa SMTP si hay host; si no, solo registra los mensajes.
func newMailSender(cfg config.SMTPConfig, log *logger.Logger) mail.Sender {
	if cfg.Host == "" {
		log.Warn().Msg("SMTP_HOST vacío: los correos solo se registran en el log")
		return mail.NewLogSender(log)
	}
	return mail.NewSMTPSender(cfg, log)
}
