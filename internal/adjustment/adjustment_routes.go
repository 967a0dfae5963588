package adjustment

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer) {
	adjustments := r.Group("/adjustments")
	adjustments.Use(middleware.AuthMiddleware())
	{
		adjustments.GET("", rbac.Authorize(enforcer, "adjustment", "read"), handler.GetByPeriod)
		adjustments.PUT("/batch", rbac.Authorize(enforcer, "adjustment", "write"), handler.UpsertBatch)

		adjustments.GET("/types", rbac.Authorize(enforcer, "adjustment", "read"), handler.GetTypes)
		adjustments.POST("/types", rbac.Authorize(enforcer, "adjustment", "write"), handler.CreateType)
		adjustments.DELETE("/types/:id", rbac.Authorize(enforcer, "adjustment", "write"), handler.DeleteType)

		adjustments.GET("/recurring", rbac.Authorize(enforcer, "adjustment", "read"), handler.GetRecurring)
		adjustments.POST("/recurring", rbac.Authorize(enforcer, "adjustment", "write"), handler.CreateRecurring)
		adjustments.PATCH("/recurring/:id", rbac.Authorize(enforcer, "adjustment", "write"), handler.UpdateRecurring)
		adjustments.POST("/recurring/apply", rbac.Authorize(enforcer, "adjustment", "write"), handler.ApplyRecurring)
	}
}
