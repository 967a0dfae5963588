package company

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer) {
	profile := r.Group("/company/profile")
	profile.Use(middleware.AuthMiddleware())
	{
		profile.GET("", rbac.Authorize(enforcer, "company", "read"), handler.GetProfile)
		profile.PUT("", rbac.Authorize(enforcer, "company", "write"), handler.UpsertProfile)
	}
}
