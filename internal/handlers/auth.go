package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/todo-tracker/internal/constants"
	apierrors "github.com/yukikurage/todo-tracker/internal/errors"
	"github.com/yukikurage/todo-tracker/internal/services"
)

const loginFailedPath = constants.LoginPath + "?error=1"

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	log         *logrus.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// LoginPage describes the login surface. error is set after a failed attempt.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"error": c.Query("error") == "1",
	})
}

// Login checks the submitted credentials and opens a session.
// Accepts a form post or a JSON body.
func (h *AuthHandler) Login(c *gin.Context) {
	const op = "handlers.AuthHandler.Login"
	log := h.log.WithField("operation", op)

	type LoginRequest struct {
		Username string `form:"username" json:"username" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, loginFailedPath)
		return
	}

	if err := h.authService.Authenticate(req.Username, req.Password); err != nil {
		log.Warn("login rejected")
		c.Redirect(http.StatusSeeOther, loginFailedPath)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(constants.SessionKeyUsername, h.authService.Username())
	session.Set(constants.SessionKeyIssuedAt, h.authService.IssuedAt())
	if err := session.Save(); err != nil {
		log.WithError(err).Error("failed to save session")
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	log.Info("login accepted")
	c.Redirect(http.StatusSeeOther, constants.RootPath)
}

// Logout removes the session and expires the cookie. Safe to repeat.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if err := session.Save(); err != nil {
		h.log.WithField("operation", "handlers.AuthHandler.Logout").WithError(err).Error("failed to clear session")
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.Redirect(http.StatusSeeOther, constants.LoginPath)
}
