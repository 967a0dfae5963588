package app

import (
	"database/sql"

	"go-payroll/internal/adjustment"
	"go-payroll/internal/company"
	"go-payroll/internal/employee"
	"go-payroll/internal/job"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/payrollrun"
	"go-payroll/internal/rbac"
	"go-payroll/internal/shared/counter"
	"go-payroll/internal/statutory"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	statutoryRepo := statutory.NewRepository(gormDB)
	companyRepo := company.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	adjustmentRepo := adjustment.NewRepository(gormDB)
	jobRepo := job.NewRepository(gormDB)
	runRepo := payrollrun.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		return err
	}

	// --- Services ---
	statutoryService := statutory.NewService(db, statutoryRepo)
	companyService := company.NewService(db, companyRepo)
	employeeService := employee.NewService(db, employeeRepo, counterRepo, rdb)
	adjustmentService := adjustment.NewService(db, adjustmentRepo)

	registry := job.NewRegistry()
	jobService := job.NewService(db, jobRepo, outboxRepo, registry)

	engine := payrollrun.NewEngine(db, runRepo, employeeService, companyService, statutoryService, adjustmentService)
	registry.Register(payrollrun.JobTypeCompute, payrollrun.NewComputeExecutor(engine, runRepo, jobRepo))

	runService := payrollrun.NewService(db, runRepo, jobService, adjustmentService)

	// --- Handlers ---
	statutoryHandler := statutory.NewHandler(statutoryService)
	companyHandler := company.NewHandler(companyService)
	employeeHandler := employee.NewHandler(employeeService)
	adjustmentHandler := adjustment.NewHandler(adjustmentService)
	jobHandler := job.NewHandler(jobService)
	runHandler := payrollrun.NewHandlerWithRedis(runService, rdb)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		statutory.RegisterRoutes(api, statutoryHandler, enforcer)
		company.RegisterRoutes(api, companyHandler, enforcer)
		employee.RegisterRoutes(api, employeeHandler, enforcer)
		adjustment.RegisterRoutes(api, adjustmentHandler, enforcer)
		job.RegisterRoutes(api, jobHandler, enforcer)
		payrollrun.RegisterRoutes(api, runHandler, enforcer, rdb)
	}

	return nil
}
