package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/todo-tracker/internal/errors"
	"github.com/yukikurage/todo-tracker/internal/services"
)

// IntegrationHandler serves the subtask generator and the webhook relay.
type IntegrationHandler struct {
	aiService *services.AIService
	notifier  *services.Notifier
	log       *logrus.Logger
}

func NewIntegrationHandler(aiService *services.AIService, notifier *services.Notifier, log *logrus.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		aiService: aiService,
		notifier:  notifier,
		log:       log,
	}
}

// GenerateSubtasks asks OpenAI for subtasks of a task description
func (h *IntegrationHandler) GenerateSubtasks(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.IntegrationHandler.GenerateSubtasks")

	type GenerateSubtasksRequest struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	var req GenerateSubtasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	subtasks, err := h.aiService.SuggestSubtasks(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		var integrationErr *services.IntegrationError
		if !errors.As(err, &integrationErr) {
			integrationErr = &services.IntegrationError{Reason: services.ReasonException, Detail: err.Error()}
		}
		log.WithError(err).Warn("subtask generation failed")
		c.JSON(subtaskFailureStatus(integrationErr), newIntegrationFailure(integrationErr))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"subtasks": subtasks,
	})
}

// subtaskFailureStatus picks the HTTP status for a failed generation. Upstream
// errors pass the OpenAI status through.
func subtaskFailureStatus(err *services.IntegrationError) int {
	switch err.Reason {
	case services.ReasonNoDescription, services.ReasonNoOpenAIKey:
		return http.StatusBadRequest
	case services.ReasonOpenAIError:
		if err.Status >= 400 {
			return err.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// RelayWebhook forwards a client supplied event to the configured sink.
// The outcome is always reported in the body with status 200.
func (h *IntegrationHandler) RelayWebhook(c *gin.Context) {
	log := h.log.WithField("operation", "handlers.IntegrationHandler.RelayWebhook")

	type RelayRequest struct {
		Event   services.WebhookEvent `json:"event"`
		Todo    json.RawMessage       `json:"todo"`
		Changes services.Changes      `json:"changes"`
	}

	var req RelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var todo interface{}
	if len(req.Todo) > 0 {
		todo = req.Todo
	}

	status, err := h.notifier.Relay(c.Request.Context(), req.Event, todo, req.Changes)
	respondRelay(c, log, status, err)
}

func respondRelay(c *gin.Context, log *logrus.Entry, status int, err error) {
	if err != nil {
		var integrationErr *services.IntegrationError
		if !errors.As(err, &integrationErr) {
			integrationErr = &services.IntegrationError{Reason: services.ReasonException, Detail: err.Error()}
		}
		log.WithError(err).Debug("webhook not relayed")
		c.JSON(http.StatusOK, newIntegrationFailure(integrationErr))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"status": status,
	})
}
