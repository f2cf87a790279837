package httpapi

import (
	"github.com/dmitrijs2005/userauth/internal/logging"
	"github.com/dmitrijs2005/userauth/internal/server/metrics"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

func newRouter(h *handlers, logger logging.Logger, limit RateLimit) *gin.Engine {
	r := gin.New()
	// client addresses come from the connection, never from X-Forwarded-For
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery(), requestID(), accessLog(logger))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	throttle := rateLimit(limit)
	authed := authRequired(h.users)
	admin := requireRole(models.RoleAdmin)

	g := r.Group("/api/users")
	{
		g.POST("/register", throttle, h.register)
		g.POST("/login", throttle, h.login)
		g.POST("/validate-token", h.validateToken)
		g.GET("/current", h.currentUser)
		g.GET("/health", h.health)

		g.GET("", authed, requireRole(models.RoleAdmin, models.RoleModerator), h.listUsers)
		g.GET("/username/:username", authed, h.getUserByUsername)
		g.GET("/:id", authed, h.getUser)
		g.PUT("/:id", authed, h.updateUser)
		g.DELETE("/:id", authed, admin, h.deleteUser)
		g.PUT("/:id/enable", authed, admin, h.setEnabled(true))
		g.PUT("/:id/disable", authed, admin, h.setEnabled(false))
		g.PUT("/:id/role", authed, admin, h.changeRole)
	}

	return r
}
