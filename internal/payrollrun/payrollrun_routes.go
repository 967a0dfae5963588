package payrollrun

import (
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, enforcer *casbin.Enforcer, redisClient *redis.Client) {
	runs := r.Group("/payroll-runs")
	runs.Use(middleware.AuthMiddleware())
	{
		runs.GET("", rbac.Authorize(enforcer, "payroll_run", "read"), handler.GetAll)
		runs.POST("", rbac.Authorize(enforcer, "payroll_run", "create"), middleware.Idempotency(redisClient), handler.Create)
		runs.GET("/:id", rbac.Authorize(enforcer, "payroll_run", "read"), handler.GetByID)
		runs.DELETE("/:id", rbac.Authorize(enforcer, "payroll_run", "delete"), handler.Delete)

		runs.POST("/:id/compute", rbac.Authorize(enforcer, "payroll_run", "compute"), handler.Compute)
		runs.POST("/:id/approve", rbac.Authorize(enforcer, "payroll_run", "approve"), handler.Approve)
		runs.POST("/:id/post", rbac.Authorize(enforcer, "payroll_run", "post"), handler.Post)
		runs.POST("/:id/unpost", rbac.Authorize(enforcer, "payroll_run", "unpost"), handler.Unpost)

		runs.GET("/:id/payslips/:employee_id", rbac.Authorize(enforcer, "payroll_run", "read"), handler.Payslip)
	}
}
