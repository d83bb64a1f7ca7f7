package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/salesvelocity/internal/api/handlers"
	"github.com/andresuchdata/salesvelocity/internal/api/middleware"
	"github.com/andresuchdata/salesvelocity/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	ReportService *service.ReportService
	BatchService  *service.BatchService
}

// Options tunes the router.
type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	if opts.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = opts.MaxUploadBytes
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.ReportService != nil {
		reportHandler := handlers.NewReportHandler(services.ReportService, opts.MaxUploadBytes)
		reportGroup := apiGroup.Group("/reports")
		{
			reportGroup.POST("", reportHandler.Upload)
			reportGroup.POST("/sales_detail", reportHandler.UploadSalesDetail)
			reportGroup.POST("/inventory_status", reportHandler.UploadInventoryStatus)
			reportGroup.GET("/:id/sales_detail", reportHandler.GetSalesDetail)
			reportGroup.GET("/:id/inventory_status", reportHandler.GetInventoryStatus)
			reportGroup.GET("/:id/options", reportHandler.GetOptions)
			reportGroup.DELETE("", reportHandler.Purge)
			reportGroup.DELETE("/:id", reportHandler.Delete)
		}
	}

	if services != nil && services.BatchService != nil {
		batchHandler := handlers.NewBatchHandler(services.BatchService)
		apiGroup.POST("/batches", batchHandler.Ingest)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
