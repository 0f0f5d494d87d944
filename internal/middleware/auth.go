package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-tracker/internal/constants"
	"github.com/yukikurage/todo-tracker/internal/services"
)

// RouteGuard redirects unauthenticated requests to the login page and
// authenticated requests away from it. Paths in exempt are never guarded.
func RouteGuard(authService *services.AuthService, exempt ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(exempt))
	for _, path := range exempt {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}

		authenticated := IsAuthenticated(c, authService)
		onLogin := path == constants.LoginPath

		switch {
		case !authenticated && !onLogin:
			c.Redirect(http.StatusFound, constants.LoginPath)
			c.Abort()
			return
		case authenticated && onLogin:
			c.Redirect(http.StatusFound, constants.RootPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

// IsAuthenticated reports whether the request carries a valid, unexpired session
func IsAuthenticated(c *gin.Context, authService *services.AuthService) bool {
	session := sessions.Default(c)
	return authService.ValidSession(
		session.Get(constants.SessionKeyUsername),
		session.Get(constants.SessionKeyIssuedAt),
	)
}
