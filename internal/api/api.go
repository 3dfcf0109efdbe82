// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/reorder-forecast/internal/api/handlers"
	"github.com/andresuchdata/reorder-forecast/internal/api/middleware"
	"github.com/andresuchdata/reorder-forecast/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Services struct {
	ForecastService handlers.ForecastService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery(service.ErrForecastFailed.Error()))
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.ForecastService != nil {
		forecastHandler := handlers.NewForecastHandler(services.ForecastService)
		apiGroup.GET("/categories", forecastHandler.GetCategories)
		forecastGroup := apiGroup.Group("/forecast")
		{
			forecastGroup.POST("", forecastHandler.RunForecast)
			forecastGroup.POST("/export", forecastHandler.ExportForecast)
			forecastGroup.GET("/runs", forecastHandler.GetRecentRuns)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		errorResponse(c, http.StatusNotFound, "route not found: "+c.Request.URL.Path)
	})

	return router
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Warn().Int("status", statusCode).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
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
