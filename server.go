package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parkingutility/revenue_backend/config"
	"github.com/parkingutility/revenue_backend/etl"
	"github.com/parkingutility/revenue_backend/loader"
	"github.com/parkingutility/revenue_backend/models"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// fileStatusListHandler lists per-file ETL progress, optionally filtered
// by data source type.
func fileStatusListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sourceType *models.DataSourceType
		if raw := strings.TrimSpace(c.Query("data_source_type")); raw != "" {
			parsed, err := models.ParseDataSourceType(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			sourceType = &parsed
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		statuses, err := models.GetFileStatuses(c.Request.Context(), sourceType, limit, offset)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "fileStatusListHandler", "GetFileStatuses", sourceType, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list file statuses"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"files": statuses})
	}
}

func fileStatusDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fileId, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
			return
		}
		status, err := models.GetFileStatus(c.Request.Context(), fileId)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "fileStatusDetailHandler", "GetFileStatus", fileId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load file status"})
			return
		}
		if status == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

type etlRequest struct {
	FileId int `json:"file_id" binding:"required"`
}

// loadHandler parses an uploaded file into its staging table.
func loadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		var req etlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		count, err := loader.LoadFile(c.Request.Context(), logger, req.FileId)
		if err != nil {
			if errors.Is(err, loader.ErrNoLoader) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "staging load failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"file_id": req.FileId, "records": count})
	}
}

// processHandler runs the promotion (or reconciliation) pass for a file.
// Runs are serialized per file: a redis lock is taken for the pass and a
// run-log row in running state refuses a second trigger.
func processHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx := c.Request.Context()

		var req etlRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		file, err := models.GetUploadedFile(ctx, req.FileId)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}

		lock, err := etl.ObtainFileLock(ctx, req.FileId)
		if err != nil {
			if errors.Is(err, etl.ErrFileLocked) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			config.LogError(logger, "server.go", "processHandler", "ObtainFileLock", req.FileId, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lock service unavailable"})
			return
		}
		defer etl.ReleaseFileLock(ctx, lock)

		running, err := models.HasRunningEtl(ctx, config.GetDB(), req.FileId)
		if err != nil {
			config.LogError(logger, "server.go", "processHandler", "HasRunningEtl", req.FileId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check run state"})
			return
		}
		if running {
			c.JSON(http.StatusConflict, gin.H{"error": "etl run already in progress for this file"})
			return
		}

		if file.DataSourceType == models.DataSourcePIPayments {
			result, err := etl.ReconcilePaymentsInsider(ctx, logger, req.FileId)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
				return
			}
			c.JSON(http.StatusOK, result)
			return
		}

		adapter, ok := etl.AdapterFor(file.DataSourceType)
		if !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no adapter for data source type " + string(file.DataSourceType)})
			return
		}
		result, err := etl.Run(ctx, logger, adapter, req.FileId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "etl run failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// cacheStatsHandler serves the dimension-cache snapshot a completed run
// published to redis, looked up by the run's correlation id.
func cacheStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := strings.TrimSpace(c.Param("correlation_id"))
		stats, found, err := etl.CacheStatsForRun(correlationId)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "cacheStatsHandler", "CacheStatsForRun", correlationId, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cache stats"})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "no cache stats for this run (expired or redis disabled)"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the startup probe passes. Until DB and
	// Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist; allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/files", fileStatusListHandler())
	r.GET("/files/:id", fileStatusDetailHandler())
	r.POST("/internal/etl/load", loadHandler())
	r.POST("/internal/etl/process", processHandler())
	r.GET("/internal/etl/cache/:correlation_id", cacheStatsHandler())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("revenue backend listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
