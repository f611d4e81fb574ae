package api

import (
	"github.com/RishiKendai/clonescope/internal/config"
	"github.com/RishiKendai/clonescope/internal/report"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(cfg *config.Config, groups Groups, reports *report.Builder) *gin.Engine {
	router := gin.Default()

	handler := NewHandler(groups, reports)

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, int(cfg.RateLimitRPS*2))

	router.Use(RequestIDMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// Health endpoint (no auth)
	router.GET("/health", handler.Health)

	// API routes (with auth and rate limiting)
	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/groups", handler.CreateGroup)
		api.GET("/groups", handler.ListGroups)
		api.PUT("/groups/:sha", handler.UpdateGroup)
		api.PUT("/groups/:sha/recompute", handler.RecomputeGroup)
		api.DELETE("/groups/:sha/sweep", handler.CancelSweep)
		api.GET("/groups/:sha/summary", handler.GroupSummary)
		api.GET("/groups/:sha/overall", handler.GroupOverall)
		api.GET("/groups/:sha/report", handler.GroupReport)
		api.GET("/groups/:sha/graph", handler.GroupGraph)
		api.GET("/groups/:sha/files", handler.GroupFiles)
		api.GET("/groups/:sha/similarities", handler.GroupSimilarities)
		api.GET("/groups/:sha/progress", handler.GroupProgress)
		api.GET("/groups/:sha/repositories/:repoSha/files/:fileSha/pairs", handler.FilePairs)

		api.GET("/pairs", handler.ListPairs)
		api.GET("/pairs/:id", handler.GetPair)

		api.GET("/comparisons", handler.ListComparisons)
	}

	return router
}
