package statutory

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer) {
	versions := r.Group("/statutory/versions")
	versions.Use(middleware.AuthMiddleware())
	{
		versions.GET("", rbac.Authorize(enforcer, "statutory", "read"), handler.GetVersions)
		versions.POST("", rbac.Authorize(enforcer, "statutory", "write"), handler.CreateVersion)
		versions.PUT("/:id/brackets/:scheme", rbac.Authorize(enforcer, "statutory", "write"), handler.SetBrackets)
		versions.PUT("/:id/tax-brackets/:frequency", rbac.Authorize(enforcer, "statutory", "write"), handler.SetTaxBrackets)
		versions.POST("/:id/publish", rbac.Authorize(enforcer, "statutory", "write"), handler.Publish)
	}
}
