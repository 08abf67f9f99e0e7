package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/mimosa-app/mimosa/internal/config"
	"github.com/mimosa-app/mimosa/internal/handlers"
	"github.com/mimosa-app/mimosa/internal/logger"
	"github.com/mimosa-app/mimosa/internal/middleware"
	"github.com/mimosa-app/mimosa/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "💬 Start the local diary API",
	Long: `# 💬 Serve

**Start the local HTTP API** the diary page and desktop shell talk to.

## 🔑 Credentials

The server validates the Generative Language API key at startup and
refuses to start without one. Set **GOOGLE_API_KEY** in your environment
or in a .env file next to where you launch mimosa.

## 📔 Data

Diary entries live in a single JSON file, **~/.mimosa/diary_data.json**
by default. Override with **MIMOSA_DIARY_FILE** or config.yaml.`,
	RunE: runServe,
}

var (
	dev      bool
	addrFlag string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode with pretty console logging")
	serveCmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Configure(logger.LevelFromEnv(dev), dev)

	cfg := config.Load()
	if addrFlag != "" {
		cfg.ListenAddr = addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Construction failures are fatal: a server without a working model
	// must never come up.
	responder, err := services.NewResponderService(ctx, services.ResponderConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize AI responder: %w", err)
	}

	diary := services.NewDiaryService(cfg.DiaryFile)
	go func() {
		if err := diary.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnf("Diary file watcher stopped: %v", err)
		}
	}()

	app := newApp(responder, diary)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down...")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Warnf("Shutdown error: %v", err)
		}
	}()

	logger.Infof("📝 Mimosa listening on %s (diary: %s)", cfg.ListenAddr, cfg.DiaryFile)
	return app.Listen(cfg.ListenAddr)
}

// newApp assembles the fiber app and its routes.
func newApp(responder *services.ResponderService, diary *services.DiaryService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mimosa",
		DisableStartupMessage: true,
	})

	app.Use(middleware.RequestLogger())

	auth := middleware.NewAuthMiddleware()
	app.Use(auth.RequireAuth)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	chatHandler := handlers.NewChatHandler(responder)
	entriesHandler := handlers.NewEntriesHandler(diary)

	v1 := app.Group("/v1")

	v1.Post("/chat", chatHandler.Chat)
	v1.Post("/chat/reset", chatHandler.Reset)
	v1.Post("/chat/followups", chatHandler.Followups)
	v1.Post("/chat/emotion", chatHandler.Emotion)

	v1.Post("/entries", entriesHandler.Create)
	v1.Get("/entries", entriesHandler.List)
	v1.Get("/entries/range", entriesHandler.Range)
	v1.Get("/entries/daily", entriesHandler.Daily)
	v1.Get("/entries/weekly", entriesHandler.Weekly)
	v1.Get("/entries/monthly", entriesHandler.Monthly)
	v1.Put("/entries/:id", entriesHandler.Update)
	v1.Delete("/entries/:id", entriesHandler.Delete)

	return app
}
