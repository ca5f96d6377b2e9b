// Package app 负责把配置装配成可运行的网关进程。
package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"uigate/internal/config"
	"uigate/internal/gateway"
	"uigate/internal/gateway/provider"
	"uigate/internal/logger"
	"uigate/internal/pkg/circuit"
	"uigate/internal/store/calllog"
	gatehttp "uigate/internal/transport/http"
)

// 调用日志保留期；到期记录由后台任务定时清理。
const (
	callLogRetention     = 7 * 24 * time.Hour
	callLogPruneInterval = time.Hour
)

type App struct {
	cfg    *config.Config
	server *gatehttp.Server
	store  *calllog.Store
}

// New 按固定顺序装配：Adapter → 熔断 → Executor → Gateway → HTTP。
// 配置在此之后只读。
func New(cfg *config.Config) (*App, error) {
	adapter, err := provider.NewAdapter(cfg.Backend)
	if err != nil {
		return nil, err
	}
	breaker := circuit.NewBreaker(adapter.Name(), cfg.Limits.BreakerThreshold, cfg.Limits.BreakerCooldown())
	exec := provider.NewExecutor(cfg.Backend, adapter, breaker)

	var store *calllog.Store
	var recorder gateway.Recorder
	if cfg.Store.CallLogPath != "" {
		store, err = calllog.Open(cfg.Store.CallLogPath)
		if err != nil {
			return nil, err
		}
		recorder = store
		logger.Infof("调用日志已启用: %s", cfg.Store.CallLogPath)
	}

	if !cfg.HasAPIKey() {
		logger.Warnf("未配置 API key：健康检查可用，所有触达后端的操作将返回配置错误")
	}

	gw := gateway.New(exec, adapter.Name(), cfg.Backend.FallbackConfidence, recorder)
	server := gatehttp.NewServer(cfg, gw, store)
	return &App{cfg: cfg, server: server, store: store}, nil
}

// Run 启动 HTTP 服务与后台清理任务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Start(ctx)
	})
	if a.store != nil {
		g.Go(func() error {
			a.pruneLoop(ctx)
			return nil
		})
	}
	return g.Wait()
}

func (a *App) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(callLogPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.store.Prune(callLogRetention)
			if err != nil {
				logger.Warnf("calllog: prune failed: %v", err)
				continue
			}
			if n > 0 {
				logger.Debugf("calllog: pruned %d expired records", n)
			}
		}
	}
}
