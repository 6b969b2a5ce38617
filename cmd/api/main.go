package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/gramin-ledger/docs" // Swagger docs
	"github.com/sjperalta/gramin-ledger/internal/config"
	"github.com/sjperalta/gramin-ledger/internal/database"
	"github.com/sjperalta/gramin-ledger/internal/handlers"
	"github.com/sjperalta/gramin-ledger/internal/jobs"
	"github.com/sjperalta/gramin-ledger/internal/middleware"
	"github.com/sjperalta/gramin-ledger/internal/repository"
	"github.com/sjperalta/gramin-ledger/internal/services"
	"github.com/sjperalta/gramin-ledger/pkg/logger"
)

// @title Gramin Ledger API
// @version 1.0
// @description Deposits, loans and yearly settlement for a village cooperative

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment)
	if cfg.Location.String() != cfg.Timezone {
		logger.Warn("Unknown TIMEZONE, falling back to UTC", "timezone", cfg.Timezone)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount, cfg.Location)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount, "timezone", cfg.Location.String())

	svcs := services.NewServices(repos, worker, cfg, services.ZonedClock(cfg.Location))

	if err := scheduleJobs(svcs, cfg); err != nil {
		logger.Error("Failed to schedule jobs", "error", err)
		os.Exit(1)
	}

	h := handlers.NewHandlers(svcs)
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Waits for an in-flight settlement run to finish
	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Index)

		members := v1.Group("/members")
		{
			members.GET("", h.Member.Index)
			members.POST("", h.Member.Create)
			members.GET("/:member_id", h.Member.Show)
			members.GET("/:member_id/statement", h.Report.MemberStatement)
			members.GET("/:member_id/statement.pdf", h.Report.MemberStatementPDF)
		}

		deposits := v1.Group("/deposits")
		{
			deposits.GET("", h.Deposit.Index)
			deposits.POST("", h.Deposit.Create)
			deposits.GET("/:deposit_id", h.Deposit.Show)
			deposits.PUT("/:deposit_id", h.Deposit.Update)
			deposits.POST("/:deposit_id/close", h.Deposit.Close)
		}

		loans := v1.Group("/loans")
		{
			loans.GET("", h.Loan.Index)
			loans.POST("", h.Loan.Create)
			loans.GET("/:loan_id", h.Loan.Show)
			loans.PUT("/:loan_id", h.Loan.Update)
			loans.GET("/:loan_id/payments", h.Loan.Payments)
			loans.POST("/:loan_id/payments", h.Loan.AddPayment)
			loans.POST("/:loan_id/close", h.Loan.Close)
		}

		v1.POST("/settlements/run", h.Settlement.Run)

		reports := v1.Group("/reports")
		{
			reports.GET("/summary", h.Report.Summary)
			reports.GET("/settlements", h.Report.SettlementReport)
			reports.GET("/settlements/:year", h.Report.SettlementReport)
			reports.GET("/settlements/:year/export", h.Report.SettlementXLSX)
		}

		public := v1.Group("/public")
		{
			public.GET("/summary", h.Report.Summary)
			public.GET("/deposits", h.Report.PublicDeposits)
			public.GET("/loans", h.Report.PublicLoans)
		}

		v1.GET("/audits", h.Audit.Index)
		v1.GET("/jobs/status", h.Job.Status)
		v1.GET("/jobs/settlement", h.Job.LastSettlement)
	}

	return router
}

func scheduleJobs(svcs *services.Services, cfg *config.Config) error {
	if err := svcs.Job.ScheduleYearlySettlement(cfg.SettlementCron); err != nil {
		return err
	}

	logger.Info("Scheduled recurring jobs", "settlement_cron", cfg.SettlementCron, "timezone", cfg.Location.String())
	return nil
}
