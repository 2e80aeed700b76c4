package opshttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vigil/internal/benchmark"
	"vigil/internal/health"
	"vigil/internal/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Harness 是集成门面向 HTTP 层暴露的查询面。
type Harness interface {
	GetSystemHealth() health.SystemHealth
	GetBenchmarkHistory(limit int) []benchmark.Result
	GetLatestBenchmark() (benchmark.Result, bool)
	GetSystemStats() map[string]any
	RunManualBenchmark(ctx context.Context) (benchmark.Result, error)
	RecordRequest(responseTime time.Duration, hasError bool)
}

// ServerConfig 描述监控 HTTP 服务依赖。
type ServerConfig struct {
	Addr            string
	Harness         Harness
	RateLimitPerMin int // 手动触发回测的限速，<=0 用默认值
}

// Server 提供 /api 下的健康与基准查询服务。
type Server struct {
	addr    string
	router  *gin.Engine
	harness Harness
	limiter *rate.Limiter
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Harness == nil {
		return nil, errors.New("ops http server requires harness")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9992"
	}
	perMin := cfg.RateLimitPerMin
	if perMin <= 0 {
		perMin = 6
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	s := &Server{
		addr:    cfg.Addr,
		router:  router,
		harness: cfg.Harness,
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), 1),
	}
	router.Use(gin.Recovery(), s.requestObserver())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api")
	api.GET("/system/health", s.handleSystemHealth)
	api.GET("/system/stats", s.handleSystemStats)
	api.GET("/benchmark/history", s.handleBenchmarkHistory)
	api.GET("/benchmark/latest", s.handleBenchmarkLatest)
	api.GET("/benchmark/chart", s.handleBenchmarkChart)
	api.POST("/benchmark/run", s.handleBenchmarkRun)
	return s, nil
}

// Start 阻塞运行直到 ctx 取消，随后优雅关停。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// requestObserver 记录访问日志，并把每次请求计入整机请求指标。
func (s *Server) requestObserver() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		s.harness.RecordRequest(dur, status >= http.StatusInternalServerError)
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, path, status, c.ClientIP(), dur)
	}
}
