package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/todo-tracker/internal/errors"
	"github.com/yukikurage/todo-tracker/internal/services"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	notifier        *services.Notifier
	log             *logrus.Logger
}

func NewSettingsHandler(settingsService *services.SettingsService, notifier *services.Notifier, log *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		notifier:        notifier,
		log:             log,
	}
}

// GetSettings returns the webhook URL and whether an OpenAI key is stored
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.SettingsHandler.GetSettings")

	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SetWebhookURL stores the webhook sink. An empty URL disables delivery.
func (h *SettingsHandler) SetWebhookURL(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.SettingsHandler.SetWebhookURL")

	type SetWebhookRequest struct {
		URL string `json:"url"`
	}

	var req SetWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.settingsService.SetWebhookURL(c.Request.Context(), req.URL); err != nil {
		respondServiceError(c, log, err)
		return
	}

	h.respondSettings(c, log)
}

// SetOpenAIKey stores the OpenAI API key
func (h *SettingsHandler) SetOpenAIKey(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.SettingsHandler.SetOpenAIKey")

	type SetOpenAIKeyRequest struct {
		APIKey string `json:"api_key"`
	}

	var req SetOpenAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.settingsService.SetOpenAIKey(c.Request.Context(), req.APIKey); err != nil {
		respondServiceError(c, log, err)
		return
	}

	h.respondSettings(c, log)
}

// TestWebhook sends a todo.test event with a sample task to the sink
func (h *SettingsHandler) TestWebhook(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.SettingsHandler.TestWebhook")

	status, err := h.notifier.TestWebhook(c.Request.Context())
	respondRelay(c, log, status, err)
}

func (h *SettingsHandler) respondSettings(c *gin.Context, log *logrus.Entry) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
