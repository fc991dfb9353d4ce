// Package v1 implements routing paths. Each services in own file.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"image_compression/entity"
	"image_compression/pkg/archive"
	"image_compression/pkg/logger"
)

const traceName = "http-v1"

// NewRouter -.
// Swagger spec:
// @title       Image compression API
// @description Downscales and recompresses images to fit a byte budget
// @version     1.0
// @host        localhost:8080
// @BasePath    /v1
func NewRouter(handler *gin.Engine, l logger.Interface, images entity.ImageCompressor, jobs entity.CompressionPlanner, maxUploadBytes int64, unpack archive.Limits) {
	// Options
	handler.Use(gin.Logger())
	handler.Use(gin.Recovery())

	// Swagger
	handler.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// K8s probe
	handler.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Prometheus metrics
	handler.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routers
	h := handler.Group("/v1")
	{
		newCompressionRoutes(h, images, jobs, maxUploadBytes, unpack, l)
	}
}
