package opshttp

import (
	"errors"
	"net/http"
	"strconv"

	"vigil/internal/benchmark"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleSystemHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.harness.GetSystemHealth())
}

func (s *Server) handleSystemStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.harness.GetSystemStats())
}

func (s *Server) handleBenchmarkHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit 必须是非负整数"})
			return
		}
		limit = v
	}
	results := s.harness.GetBenchmarkHistory(limit)
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

func (s *Server) handleBenchmarkLatest(c *gin.Context) {
	res, ok := s.harness.GetLatestBenchmark()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "暂无基准结果"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleBenchmarkRun(c *gin.Context) {
	if !s.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "手动触发过于频繁"})
		return
	}
	res, err := s.harness.RunManualBenchmark(c.Request.Context())
	switch {
	case errors.Is(err, benchmark.ErrRunInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, benchmark.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, res)
	}
}
