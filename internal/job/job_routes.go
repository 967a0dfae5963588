package job

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer) {
	jobs := r.Group("/jobs")
	jobs.Use(middleware.AuthMiddleware())
	{
		jobs.GET("", rbac.Authorize(enforcer, "job", "read"), handler.GetAll)
		jobs.GET("/:id", rbac.Authorize(enforcer, "job", "read"), handler.GetByID)
		jobs.POST("/:id/cancel", rbac.Authorize(enforcer, "job", "cancel"), handler.Cancel)
	}
}
