package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/todo-tracker/internal/errors"
	"github.com/yukikurage/todo-tracker/internal/services"
)

// respondServiceError maps a service error onto the API error envelope.
func respondServiceError(c *gin.Context, log *logrus.Entry, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apierrors.BadRequestWithDetails(c, validationErr.Message, gin.H{"field": validationErr.Field})
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	default:
		log.WithError(err).Error("request failed")
		apierrors.InternalError(c, "")
	}
}

// integrationFailure is the body returned when an integration does not succeed.
type integrationFailure struct {
	OK     bool                       `json:"ok"`
	Reason services.IntegrationReason `json:"reason"`
	Status int                        `json:"status,omitempty"`
	Detail string                     `json:"detail,omitempty"`
}

func newIntegrationFailure(err *services.IntegrationError) integrationFailure {
	return integrationFailure{
		OK:     false,
		Reason: err.Reason,
		Status: err.Status,
		Detail: err.Detail,
	}
}
