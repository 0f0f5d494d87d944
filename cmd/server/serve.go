package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yukikurage/todo-tracker/internal/config"
	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/database"
	"github.com/yukikurage/todo-tracker/internal/repository"
	"github.com/yukikurage/todo-tracker/internal/server"
	"github.com/yukikurage/todo-tracker/internal/services"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on startup")

	return cmd
}

func runServe(skipMigrate bool) error {
	cfg := config.Load()
	log := setupLogger(cfg)

	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg, log); err != nil {
		return err
	}
	if !skipMigrate {
		if err := database.Migrate(log); err != nil {
			return err
		}
	}

	authService, err := services.NewAuthService(cfg.AuthUsername, cfg.AuthPassword, cfg.AuthPasswordHash, constants.SessionMaxAge)
	if err != nil {
		return fmt.Errorf("credential gate: %w", err)
	}

	store, err := server.NewSessionStore(cfg, database.GetDB())
	if err != nil {
		return err
	}

	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	notifier := services.NewNotifier(settingsRepo, &http.Client{Timeout: cfg.WebhookTimeout}, log)
	taskService := services.NewTaskService(taskRepo, commentRepo, notifier)
	aiService := services.NewAIService(settingsRepo, cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, nil)

	router := server.NewRouter(server.Dependencies{
		Log:             log,
		SessionStore:    store,
		AuthService:     authService,
		TaskService:     taskService,
		SettingsService: services.NewSettingsService(settingsRepo),
		AIService:       aiService,
		Notifier:        notifier,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Wrap(cfg, router),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	// Let in-flight webhook deliveries finish; each is bounded by WEBHOOK_TIMEOUT.
	notifier.Wait()
	log.Info("Server stopped")
	return nil
}
