// Package gatehttp 提供网关的 HTTP 服务面：操作路由、健康检查与限流。
package gatehttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"uigate/internal/config"
	"uigate/internal/gateway"
	"uigate/internal/logger"
	"uigate/internal/store/calllog"
)

const serviceName = "uigate"

// Server 包装 gin 引擎与依赖。
type Server struct {
	addr  string
	cfg   *config.Config
	gw    *gateway.Gateway
	store *calllog.Store

	router *gin.Engine
}

// NewServer 组装路由。store 可为 nil（未启用调用日志）。
func NewServer(cfg *config.Config, gw *gateway.Gateway, store *calllog.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), requestID())

	s := &Server{
		addr:   cfg.App.HTTPAddr,
		cfg:    cfg,
		gw:     gw,
		store:  store,
		router: router,
	}

	router.GET("/", s.handleRoot)
	router.GET("/healthz", s.handleHealthz)
	router.GET("/health/deep", s.handleDeepHealth)

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(newClientLimiter(cfg.Limits.RateWindow(), cfg.Limits.RateCap)))
	s.registerOperations(api)
	api.GET("/calls", s.handleCalls)

	return s
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": serviceName,
		"status":  "operational",
	})
}

// handleHealthz 只报进程存活与配置摘要，不触达后端。
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"provider":     s.cfg.Backend.Provider,
		"model":        s.cfg.Backend.Model,
		"vision_model": s.cfg.Backend.VisionModel,
		"api_key_set":  s.cfg.HasAPIKey(),
	})
}

// handleDeepHealth 发一次最小真实调用确认后端可达，
// 错误分类与生产调用一致。
func (s *Server) handleDeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Backend.Timeout())
	defer cancel()
	if err := s.gw.DeepHealth(ctx); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": "reachable"})
}

func (s *Server) handleCalls(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, errBody("call log is not enabled", "config"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := s.store.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errBody(err.Error(), "store"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": entries})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// Handler 暴露底层 http.Handler，测试用。
func (s *Server) Handler() http.Handler { return s.router }

// Start 启动 HTTP 服务，直到 ctx 取消或出错。
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Infof("HTTP 服务已启动，监听 %s", s.addr)
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
