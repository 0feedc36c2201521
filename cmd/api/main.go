package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/evcenter-api/internal/application/appointment"
	"github.com/jhoicas/evcenter-api/internal/application/auth"
	"github.com/jhoicas/evcenter-api/internal/application/billing"
	"github.com/jhoicas/evcenter-api/internal/application/inventory"
	"github.com/jhoicas/evcenter-api/internal/application/reservation"
	"github.com/jhoicas/evcenter-api/internal/application/scheduler"
	"github.com/jhoicas/evcenter-api/internal/application/servicecenter"
	"github.com/jhoicas/evcenter-api/internal/application/settings"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/mail"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/evcenter-api/internal/infrastructure/pdf"
	"github.com/jhoicas/evcenter-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/evcenter-api/internal/interfaces/http"
	"github.com/jhoicas/evcenter-api/pkg/config"
	"github.com/jhoicas/evcenter-api/pkg/logger"
)

//go:generate go tool swag init -d ../.. -g cmd/api/main.go -o ../../docs --outputTypes json --parseInternal

// @title                       EV Center API
// @version                     1.0
// @description                 Citas de mantenimiento de vehículos eléctricos, reservas de repuestos, inventario y facturación.
// @BasePath                    /
// @schemes                     http https
// @accept                      json
// @produce                     json
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().Str("env", cfg.App.Env).Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Almacén operativo: existencias, reservas, libro, citas, centros y políticas.
	docs, err := openDocumentStore(ctx, cfg.Mongo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a MongoDB")
	}
	defer func() { _ = docs.close(context.Background()) }()

	// PostgreSQL: usuarios y facturación.
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones de PostgreSQL")
		}
	}

	locker, closeLocker := newLocker(ctx, cfg.Redis, cfg.Reservation.LockTimeout, log)
	defer func() { _ = closeLocker() }()
	publisher, closePublisher := newPublisher(cfg.Kafka, log)
	defer func() { _ = closePublisher() }()
	recorder := metrics.New("evcenter")
	notifier := mail.NewNotifier(newMailSender(cfg.SMTP, log), docs.centers, log)

	settingsUC := settings.NewUseCase(docs.settings)
	centerUC := servicecenter.NewUseCase(docs.centers)
	ledgerUC := inventory.NewLedgerUseCase(docs.txRunner, docs.stock, docs.ledger, log)
	replenishmentUC := inventory.NewReplenishmentUseCase(docs.stock)

	manager := reservation.NewManager(reservation.Deps{
		TxRunner:            docs.txRunner,
		Stock:               docs.stock,
		Reservations:        docs.reservations,
		Ledger:              docs.ledger,
		LedgerUC:            ledgerUC,
		Appointments:        docs.appointments,
		Policy:              settingsUC,
		Notifier:            notifier,
		Locker:              locker,
		Events:              publisher,
		Metrics:             recorder,
		Log:                 log,
		RequireTransactions: cfg.Mongo.Transactions == config.TxModeRequired,
		ExpiryBatch:         cfg.Reservation.ExpiryBatch,
	})
	appointmentUC := appointment.NewUseCase(docs.appointments, manager, settingsUC, notifier, publisher, log)

	invoiceUC := billing.NewUseCase(billing.Deps{
		TxRunner:     postgres.NewTxRunner(pool),
		Invoices:     postgres.NewInvoiceRepository(pool),
		Appointments: docs.appointments,
		Reservations: docs.reservations,
		Stock:        docs.stock,
		Centers:      docs.centers,
		Policy:       settingsUC,
		PDF:          infrapdf.NewMarotoPDFGenerator(),
		Log:          log,
	})
	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), docs.centers, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	jobs := scheduler.New(cfg.Scheduler.JobTimeout, recorder, log)
	for _, j := range []scheduler.Job{
		{Name: "appointment-auto-cancel", Interval: cfg.Scheduler.AutoCancelEvery, Run: appointment.NewAutoCanceller(appointmentUC).Sweep},
		{Name: "reservation-expiry", Interval: cfg.Scheduler.ExpiryEvery, Run: manager.ReleaseExpired},
		{Name: "appointment-reminders", Interval: cfg.Scheduler.RemindersEvery, Run: appointment.NewReminder(appointmentUC).Sweep},
	} {
		if err := jobs.Register(j); err != nil {
			log.Fatal().Err(err).Str("job", j.Name).Msg("registrar job")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "EV Center API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:          authUC,
		Reservations:    manager,
		Ledger:          ledgerUC,
		Replenishment:   replenishmentUC,
		AppointmentUC:   appointmentUC,
		InvoiceUC:       invoiceUC,
		SettingsUC:      settingsUC,
		ServiceCenterUC: centerUC,
		Scheduler:       jobs,
		JWTSecret:       cfg.JWT.Secret,
		Log:             log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			return err
		}
		return nil
	})
	if cfg.Scheduler.Enabled {
		jobs.Start(gctx)
	} else {
		log.Warn().Msg("scheduler deshabilitado; los jobs solo corren desde /api/admin/jobs")
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")

		jobs.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	log.Info().Msg("aplicación detenida")
}
