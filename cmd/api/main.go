package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/internal/application/usecase"
	infraamqp "github.com/tu-usuario/stock-ledger/internal/infrastructure/amqp"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/memory"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/stock-ledger/internal/interfaces/http"
	"github.com/tu-usuario/stock-ledger/pkg/config"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()
	lockTimeout := time.Duration(cfg.Ledger.LockTimeoutMS) * time.Millisecond

	var deps httpRouter.RouterDeps
	var closeStore func()

	// Publicador de eventos StockChanged (opcional: URL vacía lo desactiva).
	var notifier ledger.ChangeNotifier
	if cfg.AMQP.URL != "" {
		amqpNotifier, err := infraamqp.NewNotifier(cfg.AMQP.URL, cfg.AMQP.Queue, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	if cfg.Ledger.Store == "memory" {
		// Sustrato en RAM: desarrollo local sin PostgreSQL.
		store := memory.NewStore(lockTimeout)
		productRepo := memory.NewProductRepository(store)
		locationRepo := memory.NewLocationRepository(store)
		itemRepo := memory.NewStockItemRepository(store)
		movementRepo := memory.NewStockMovementRepository(store)
		transferRepo := memory.NewStockTransferRepository(store)
		txRunner := memory.NewTxRunner(store)

		stock := ledger.NewStockLedger(itemRepo, productRepo, locationRepo)
		movements := ledger.NewMovementEngine(txRunner, stock, notifier, log)
		deps = httpRouter.RouterDeps{
			ProductUC:  usecase.NewProductUseCase(productRepo, itemRepo),
			LocationUC: usecase.NewLocationUseCase(locationRepo),
			Stock:      stock,
			Movements:  movements,
			Transfers:  ledger.NewTransferEngine(txRunner, movements, transferRepo, locationRepo, log),
			Queries:    ledger.NewQueries(movementRepo, transferRepo),
		}
		closeStore = func() {}
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		productRepo := postgres.NewProductRepository(pool)
		locationRepo := postgres.NewLocationRepository(pool)
		itemRepo := postgres.NewStockItemRepository(pool)
		movementRepo := postgres.NewStockMovementRepository(pool)
		transferRepo := postgres.NewStockTransferRepository(pool)
		txRunner := postgres.NewTxRunner(pool, lockTimeout)

		stock := ledger.NewStockLedger(itemRepo, productRepo, locationRepo)
		movements := ledger.NewMovementEngine(txRunner, stock, notifier, log)
		deps = httpRouter.RouterDeps{
			ProductUC:  usecase.NewProductUseCase(productRepo, itemRepo),
			LocationUC: usecase.NewLocationUseCase(locationRepo),
			Stock:      stock,
			Movements:  movements,
			Transfers:  ledger.NewTransferEngine(txRunner, movements, transferRepo, locationRepo, log),
			Queries:    ledger.NewQueries(movementRepo, transferRepo),
		}
		closeStore = pool.Close
	}
	defer closeStore()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
