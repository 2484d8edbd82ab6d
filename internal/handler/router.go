package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter builds the HTTP surface of the directory.
func NewRouter(h *Handler, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/schools", h.ListSchools)
	r.POST("/schools", h.CreateSchool)
	r.POST("/schools/check-duplicate", h.CheckDuplicate)
	r.POST("/upload", h.UploadImage)

	return r
}
