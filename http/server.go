// Package http 提供预测演示的HTTP服务器：页面、JSON接口和运行事件推送
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"predictdemo/db"
	"predictdemo/monitoring"
	"predictdemo/workflow"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int
	Timeout time.Duration
}

// RunHistory 运行日志查询接口
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]db.RunRecord, error)
}

// Deps 服务器依赖
type Deps struct {
	Catalogue *workflow.Catalogue
	Service   *workflow.Service
	Metrics   *monitoring.RunMetrics
	Hub       *monitoring.Hub
	// History 为空时运行日志接口返回503
	History RunHistory
	Logger  *zap.Logger
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Deps) (*Server, error) {
	if deps.Catalogue == nil || deps.Service == nil {
		return nil, errors.New("catalogue and service are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewRunMetrics(nil)
	}

	h, err := newHandlers(deps)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	RegisterPages(mux, h)
	RegisterAPIHandlers(mux, h)

	// 创建中间件链
	chain := Chain(
		RecoveryMiddleware(deps.Logger),   // 1. 恢复中间件（最先执行，捕获panic）
		LoggerMiddleware(deps.Logger),     // 2. 日志中间件
		SecurityHeadersMiddleware,         // 3. 安全头中间件
		TimeoutMiddleware(config.Timeout), // 4. 超时中间件
	)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.Port),
			Handler:           chain(mux),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		config: config,
		logger: deps.Logger,
	}, nil
}

// Handler 返回带中间件的处理器
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
