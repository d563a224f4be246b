package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/custodia-api/docs"
	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/application/auth"
	"github.com/jhoicas/custodia-api/internal/application/catalog"
	"github.com/jhoicas/custodia-api/internal/application/custody"
	"github.com/jhoicas/custodia-api/internal/application/ports"
	"github.com/jhoicas/custodia-api/internal/application/sales"
	"github.com/jhoicas/custodia-api/internal/application/shift"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/internal/infrastructure/memory"
	"github.com/jhoicas/custodia-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/custodia-api/internal/interfaces/http"
	"github.com/jhoicas/custodia-api/pkg/config"
	"github.com/jhoicas/custodia-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: el login no podrá emitir tokens")
	}

	ctx := context.Background()

	var (
		txRunner ports.TxRunner
		repos    repository.Repos
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		store := memory.New()
		txRunner = store
		repos = store.Repos()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(pool, log); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		txRunner = postgres.NewTxRunner(pool)
		repos = postgres.NewRepos(pool)
	}

	authUC := auth.NewAuthUseCase(repos.Users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	catalogUC := catalog.NewUseCase(txRunner, repos, log)
	custodyUC := custody.NewUseCase(txRunner, repos, log)
	salesUC := sales.NewUseCase(txRunner, repos, log)
	shiftUC := shift.NewUseCase(txRunner, repos, log)
	auditUC := audit.NewQueryUseCase(repos.Events)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		Immutable:    true,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.DocsEnabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Custodia API",
		}))
		app.Get("/swagger.json", func(c *fiber.Ctx) error {
			doc, err := docs.Read()
			if err != nil {
				return err
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.SendString(doc)
		})
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		CatalogUC: catalogUC,
		CustodyUC: custodyUC,
		SalesUC:   salesUC,
		ShiftUC:   shiftUC,
		AuditUC:   auditUC,
		JWTSecret: cfg.JWT.Secret,
	})

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
