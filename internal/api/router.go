package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jengzang/mpawatch-backend-go/internal/handler"
	"github.com/jengzang/mpawatch-backend-go/internal/middleware"
	"github.com/jengzang/mpawatch-backend-go/internal/spatial"
)

// Deps 路由依赖
type Deps struct {
	Index       *spatial.GeometryIndex
	Analysis    *handler.AnalysisHandler
	Layers      *handler.LayerHandler
	RateLimiter *middleware.RateLimiter
	JWTSecret   string
	Logger      zerolog.Logger
}

// SetupRouter 设置路由
func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(deps.Logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "MPA watch API is running",
			"layers":  deps.Index.Layers(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := r.Group("/api/v1", middleware.Auth(deps.JWTSecret))
	{
		analyses := api.Group("/analyses", middleware.RateLimit(deps.RateLimiter))
		{
			analyses.POST("", deps.Analysis.Analyze)
			analyses.POST("/fetch", deps.Analysis.FetchAndAnalyze)
		}

		layers := api.Group("/layers")
		{
			layers.GET("", deps.Layers.ListLayers)
			layers.GET("/:name", deps.Layers.GetLayer)
		}
	}

	return r
}
