package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"github.com/whitedevilpython/hackathon-registration/internal/config"
	"github.com/whitedevilpython/hackathon-registration/internal/handlers"
	"github.com/whitedevilpython/hackathon-registration/internal/repositories"
	"github.com/whitedevilpython/hackathon-registration/internal/services"
	"github.com/whitedevilpython/hackathon-registration/internal/views"
	"github.com/whitedevilpython/hackathon-registration/pkg/mailer"
	"github.com/whitedevilpython/hackathon-registration/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Database ---
	db, err := repositories.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := repositories.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Mail transport (only when verification is on) ---
	var notifier services.Notifier
	if cfg.EmailVerification {
		m, err := mailer.New(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			log.Fatalf("Failed to initialize mailer: %v", err)
		}
		notifier = m
	}

	// --- RabbitMQ event publisher (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL not set. Participant events will not be published.")
	}

	app := newApp(cfg, db, notifier, publisher)

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("Server gracefully stopped")
}

// newApp wires repositories, services and handlers into a Fiber app.
func newApp(cfg *config.Config, db *gorm.DB, notifier services.Notifier, publisher services.EventPublisher) *fiber.App {
	// --- Repositories ---
	participantRepo := repositories.NewGORMParticipantRepository(db)
	pendingRepo := repositories.NewGORMPendingRepository(db, cfg.PendingTTL)

	// --- Services ---
	registrationService := services.NewRegistrationService(participantRepo, pendingRepo, notifier, publisher, services.RegistrationOptions{
		VerificationEnabled: cfg.EmailVerification,
		PublicBaseURL:       cfg.PublicBaseURL,
	})
	adminService := services.NewAdminService(participantRepo, publisher)
	adminAuthService := services.NewAdminAuthService(cfg.AdminPasswordHash, cfg.JWTSecret)

	// --- Handlers ---
	registrationHandler := handlers.NewRegistrationHandler(registrationService)
	adminHandler := handlers.NewAdminHandler(adminService, adminAuthService, cfg.EmailVerification)

	app := fiber.New(fiber.Config{
		Views: views.NewEngine(),
	})

	// --- Middleware ---
	app.Use(logger.New())
	app.Use(cors.New())

	registrationHandler.RegisterRoutes(app)
	adminHandler.RegisterRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}
