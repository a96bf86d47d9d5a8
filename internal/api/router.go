package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/tableviz/internal/config"
	"github.com/jengzang/tableviz/internal/handler"
	"github.com/jengzang/tableviz/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Dataset *handler.DatasetHandler
}

// SetupRouter 设置路由
func SetupRouter(ctx context.Context, cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	if cfg.Server.RateLimit > 0 {
		window := time.Duration(cfg.Server.RateLimitWindow) * time.Second
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(ctx, cfg.Server.RateLimit, window)))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "tableviz API is running",
		})
	})

	// API 路由组
	api := r.Group("/api/v1")
	if cfg.Auth.Enabled {
		api.Use(middleware.Auth(middleware.NewTokenAuth(cfg.Auth.JWTSecret, cfg.Auth.Issuer)))
	}

	datasets := api.Group("/datasets")
	{
		datasets.POST("", h.Dataset.CreateDataset)
		datasets.GET("", h.Dataset.ListDatasets)
		datasets.GET("/:id", h.Dataset.GetDataset)
		datasets.DELETE("/:id", h.Dataset.DeleteDataset)
		datasets.POST("/:id/reload", h.Dataset.ReloadDataset)
		datasets.GET("/:id/loads", h.Dataset.GetLoads)

		// 样式
		datasets.GET("/:id/style", h.Dataset.GetStyle)
		datasets.PUT("/:id/style", h.Dataset.UpdateStyle)

		// 显示输出
		datasets.GET("/:id/records", h.Dataset.GetRecords)
		datasets.GET("/:id/czml", h.Dataset.GetCZML)
		datasets.GET("/:id/legend.png", h.Dataset.GetLegend)
		datasets.GET("/:id/points", h.Dataset.GetPoints)
		datasets.GET("/:id/slice", h.Dataset.GetSlice)
		datasets.GET("/:id/summary", h.Dataset.GetSummary)
	}

	return r
}
