package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/todo-tracker/internal/config"
	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/handlers"
	"github.com/yukikurage/todo-tracker/internal/middleware"
	"github.com/yukikurage/todo-tracker/internal/services"
	"gorm.io/gorm"
)

const healthPath = "/health"

// Dependencies holds everything the router needs
type Dependencies struct {
	Log             *logrus.Logger
	SessionStore    sessions.Store
	AuthService     *services.AuthService
	TaskService     *services.TaskService
	SettingsService *services.SettingsService
	AIService       *services.AIService
	Notifier        *services.Notifier
}

// NewSessionStore returns a Redis backed store when REDIS_HOST is set and a
// store backed by the sessions table of db otherwise. Either way the cookie
// only carries a signed session id, so logout deletes the session server-side.
func NewSessionStore(cfg *config.Config, db *gorm.DB) (sessions.Store, error) {
	var store sessions.Store
	if cfg.RedisHost != "" {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	} else {
		// Expired rows are purged hourly
		store = gormsessions.NewStore(db, true, []byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(constants.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// NewRouter builds the gin engine with the session middleware, the route
// guard and every route.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))
	r.Use(middleware.RouteGuard(deps.AuthService, healthPath))

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Log)
	taskHandler := handlers.NewTaskHandler(deps.TaskService, deps.Log)
	integrationHandler := handlers.NewIntegrationHandler(deps.AIService, deps.Notifier, deps.Log)
	settingsHandler := handlers.NewSettingsHandler(deps.SettingsService, deps.Notifier, deps.Log)

	// Health check endpoint
	r.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Todo tracker is running",
		})
	})

	r.GET(constants.LoginPath, authHandler.LoginPage)
	r.POST(constants.LoginPath, authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET(constants.RootPath, taskHandler.Home)

	api := r.Group("/api")
	{
		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/stats", taskHandler.Stats)
			tasks.DELETE("/finished", taskHandler.ClearFinished)

			// Mutations resolve the task in the service; only the read needs it preloaded here
			tasks.GET("/:id", middleware.LoadTask(deps.TaskService, deps.Log), taskHandler.GetTask)

			task := tasks.Group("/:id")
			{
				task.PUT("", taskHandler.SaveTask)
				task.DELETE("", taskHandler.DeleteTask)
				task.POST("/toggle", taskHandler.ToggleTask)
				task.PATCH("/status", taskHandler.SetStatus)
				task.PATCH("/due-date", taskHandler.SetDueDate)
				task.GET("/comments", taskHandler.ListComments)
				task.POST("/comments", taskHandler.AddComment)
			}
		}

		api.POST("/subtasks", integrationHandler.GenerateSubtasks)
		api.POST("/webhook", integrationHandler.RelayWebhook)

		settings := api.Group("/settings")
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("/webhook", settingsHandler.SetWebhookURL)
			settings.PUT("/openai", settingsHandler.SetOpenAIKey)
			settings.POST("/webhook/test", settingsHandler.TestWebhook)
		}
	}

	return r
}

// Wrap adds proxy header handling and, when origins are configured, CORS
// with credentials.
func Wrap(cfg *config.Config, h http.Handler) http.Handler {
	h = gorillahandlers.ProxyHeaders(h)
	if len(cfg.CORSAllowedOrigins) == 0 {
		return h
	}

	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.CORSAllowedOrigins),
		gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowCredentials(),
	)(h)
}
