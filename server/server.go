// Package server поднимает HTTP API над каскадом поиска NIP.
// Ядро остается библиотечным: сервер только принимает запросы,
// вызывает finder и отдает результат как есть.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"nipfinder/cache"
	"nipfinder/finder"
	"nipfinder/internal/config"
	"nipfinder/models"
)

// Пакетный запрос больше этого отклоняется сразу
const maxBatchSize = 100

// CacheAdmin административные операции над кэшем результатов
type CacheAdmin interface {
	GetStats() (cache.Stats, error)
	PurgeExpired() (int64, error)
}

// Server HTTP сервер поиска NIP
type Server struct {
	finder     *finder.Finder
	cacheAdmin CacheAdmin
	config     *config.Config
	httpServer *http.Server
	startTime  time.Time
}

// NewServer создает сервер поверх готового каскада
func NewServer(cfg *config.Config, f *finder.Finder, cacheAdmin CacheAdmin) *Server {
	return &Server{
		finder:     f,
		cacheAdmin: cacheAdmin,
		config:     cfg,
		startTime:  time.Now(),
	}
}

// Router собирает gin router со всеми маршрутами
func (s *Server) Router() *gin.Engine {
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "nip-finder",
			"uptime":  time.Since(s.startTime).String(),
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	{
		nipAPI := api.Group("/nip")
		{
			nipAPI.POST("/find", s.handleFind)
			nipAPI.POST("/find-batch", s.handleFindBatch)
		}

		cacheAPI := api.Group("/cache")
		{
			cacheAPI.GET("/stats", s.handleCacheStats)
			cacheAPI.POST("/purge", s.handleCachePurge)
		}
	}

	return router
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // пакетные запросы работают долго
	}

	log.Printf("[Server] INFO: listening on :%s", s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown останавливает сервер gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Printf("[Server] INFO: shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleFind(c *gin.Context) {
	var req models.NIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.CompanyName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_name is required"})
		return
	}

	result := s.finder.FindNIP(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleFindBatch(c *gin.Context) {
	var batch models.BatchRequest
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(batch.Companies) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companies list is empty"})
		return
	}
	if len(batch.Companies) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("batch size %d exceeds limit %d", len(batch.Companies), maxBatchSize),
		})
		return
	}
	if batch.MaxConcurrent == 0 {
		batch.MaxConcurrent = s.config.Strategies.MaxConcurrent
	}

	result := s.finder.FindBatch(c.Request.Context(), batch)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCacheStats(c *gin.Context) {
	if s.cacheAdmin == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache is not configured"})
		return
	}

	stats, err := s.cacheAdmin.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCachePurge(c *gin.Context) {
	if s.cacheAdmin == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache is not configured"})
		return
	}

	purged, err := s.cacheAdmin.PurgeExpired()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}
