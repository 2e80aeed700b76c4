package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vigil/internal/alert"
	"vigil/internal/benchmark"
	"vigil/internal/collab"
	vcfg "vigil/internal/config"
	"vigil/internal/events"
	"vigil/internal/gateway/notifier"
	"vigil/internal/health"
	"vigil/internal/logger"
	"vigil/internal/strategy"
	opshttp "vigil/internal/transport/http/ops"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNotInitialized   = errors.New("系统尚未初始化")
	ErrBacktestDisabled = errors.New("基准回测已在配置中禁用")
)

// Collaborators 汇集五个外部分析协作方。留空的项探活时记为 CRITICAL；
// 策略协作方缺省时回落到内置 EMA 参考策略。
type Collaborators struct {
	StateAnalyzer collab.StateAnalyzer
	Params        collab.ParameterManager
	Calibration   collab.CalibrationService
	HotUpdate     collab.HotUpdateService
	Strategy      collab.StrategyEngine
}

// App 是集成门面：唯一持有健康记录、基准历史与请求计数的所有者，
// 对外提供查询面并负责事件再发布。
type App struct {
	cfg       *vcfg.Config
	bus       *events.Bus
	recorder  *health.Recorder
	checker   *health.Checker
	scheduler *benchmark.Scheduler
	alerter   *alert.Alerter
	httpSrv   *opshttp.Server
	tg        notifier.TextNotifier

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewApp 根据配置与协作方构建应用对象（不启动）。
// 初始化失败通过 ERROR 事件公告并上抛给调用方。
func NewApp(cfg *vcfg.Config, collabs Collaborators) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	bus := events.NewBus()
	a, err := build(cfg, collabs, bus)
	if err != nil {
		bus.PublishError("system", "init", err)
		return nil, err
	}
	bus.Publish(events.TypeSystemInitialized, nil)
	return a, nil
}

func build(cfg *vcfg.Config, collabs Collaborators, bus *events.Bus) (*App, error) {
	recorder := health.NewRecorder()

	strat := collabs.Strategy
	if strat == nil {
		strat = strategy.NewEMACross()
		logger.Infof("未接入外部策略服务，使用内置 EMA 参考策略")
	}

	checker, err := health.NewChecker(health.CheckerConfig{
		StateAnalyzer: collabs.StateAnalyzer,
		Params:        collabs.Params,
		Calibration:   collabs.Calibration,
		HotUpdate:     collabs.HotUpdate,
		Strategy:      strat,
		Bus:           bus,
		Recorder:      recorder,
		Interval:      cfg.Monitor.HealthCheckInterval(),
	})
	if err != nil {
		return nil, fmt.Errorf("初始化健康巡检失败: %w", err)
	}

	var tg notifier.TextNotifier
	if cfg.Notify.Telegram.Enabled {
		tg = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
	}

	var scheduler *benchmark.Scheduler
	if cfg.Monitor.BacktestEnabled {
		engine := benchmark.NewEngine(cfg.Monitor.FeeRate, collabs.Calibration, collabs.Params)
		schedCfg := benchmark.SchedulerConfig{
			Engine:   engine,
			Source:   &syntheticSource{days: cfg.Monitor.BacktestDays},
			Strategy: strat,
			Notional: cfg.Monitor.NotionalUSD,
			Interval: cfg.Monitor.BenchmarkInterval(),
			Bus:      bus,
		}
		if tg != nil {
			schedCfg.Notifier = tg
		}
		scheduler, err = benchmark.NewScheduler(schedCfg)
		if err != nil {
			return nil, fmt.Errorf("初始化基准调度器失败: %w", err)
		}
	}

	a := &App{
		cfg:       cfg,
		bus:       bus,
		recorder:  recorder,
		checker:   checker,
		scheduler: scheduler,
		alerter:   alert.New(cfg.Thresholds, bus),
		tg:        tg,
	}

	strat.SetHooks(collab.StrategyHooks{
		OnError: func(err error) {
			bus.PublishError(health.ComponentStrategyEngine, "notification", err)
		},
		OnPerformanceUpdated: a.EvaluatePerformance,
		OnParametersAdjusted: func(adj collab.ParameterAdjustment) {
			logger.Infof("策略参数已调整: %s（%d 项）", adj.Reason, len(adj.Changes))
		},
	})

	if tg != nil {
		bus.Subscribe(events.TypeWarning, func(evt events.Event) {
			payload, ok := evt.Payload.(events.WarningPayload)
			if !ok {
				return
			}
			msg := "*性能告警* ⚠️\n"
			for _, w := range payload.Warnings {
				msg += "- " + w + "\n"
			}
			if err := tg.SendText(msg); err != nil {
				logger.Warnf("性能告警通知失败: %v", err)
			}
		})
	}

	a.httpSrv, err = opshttp.NewServer(opshttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Harness: a,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP 服务失败: %w", err)
	}
	return a, nil
}

// Run 启动健康巡检、HTTP 服务以及（按配置）基准定时器，阻塞直到 ctx 取消或 Stop。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return ErrNotInitialized
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		cancel()
		return nil
	}
	a.cancel = cancel
	a.mu.Unlock()

	logger.InfoBlock(a.startupSummary())

	group, runCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		if err := a.httpSrv.Start(runCtx); err != nil {
			return fmt.Errorf("ops http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		a.checker.Run(runCtx)
		return nil
	})
	if a.scheduler != nil && a.cfg.Monitor.RealtimeEnabled {
		a.scheduler.Start(runCtx)
	}
	return group.Wait()
}

// Stop 立即取消两个定时器，幂等；在途回测允许自然结束，结果被丢弃。
func (a *App) Stop() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	cancel := a.cancel
	a.mu.Unlock()

	a.checker.Stop()
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// GetSystemHealth 返回健康记录的防御性拷贝。
func (a *App) GetSystemHealth() health.SystemHealth {
	if a == nil || a.checker == nil {
		return health.SystemHealth{}
	}
	return a.checker.Snapshot()
}

// GetBenchmarkHistory 按时间先后返回最近 limit 条基准结果（最新在末尾）。
func (a *App) GetBenchmarkHistory(limit int) []benchmark.Result {
	if a == nil || a.scheduler == nil {
		return nil
	}
	return a.scheduler.History(limit)
}

// GetLatestBenchmark 返回最近一次基准结果。
func (a *App) GetLatestBenchmark() (benchmark.Result, bool) {
	if a == nil || a.scheduler == nil {
		return benchmark.Result{}, false
	}
	return a.scheduler.Latest()
}

// GetSystemStats 汇总健康、计数与基准概况。
func (a *App) GetSystemStats() map[string]any {
	if a == nil || a.checker == nil {
		return map[string]any{"error": ErrNotInitialized.Error()}
	}
	snap := a.checker.Snapshot()
	requests, errs := a.recorder.Counters()
	stats := map[string]any{
		"overall":          snap.Overall,
		"components":       snap.Components,
		"metrics":          snap.Metrics,
		"last_check":       snap.LastCheck,
		"total_requests":   requests,
		"total_errors":     errs,
		"realtime_enabled": a.cfg.Monitor.RealtimeEnabled,
		"backtest_enabled": a.cfg.Monitor.BacktestEnabled,
	}
	if a.scheduler != nil {
		stats["benchmark_runs"] = a.scheduler.HistoryLen()
		if latest, ok := a.scheduler.Latest(); ok {
			stats["last_benchmark_at"] = latest.Timestamp
		}
	}
	return stats
}

// RunManualBenchmark 同步执行一次带外基准回测并返回结果。
func (a *App) RunManualBenchmark(ctx context.Context) (benchmark.Result, error) {
	if a == nil {
		return benchmark.Result{}, ErrNotInitialized
	}
	if a.scheduler == nil {
		return benchmark.Result{}, ErrBacktestDisabled
	}
	return a.scheduler.RunOnce(ctx)
}

// RecordRequest 记录一次请求指标。
func (a *App) RecordRequest(responseTime time.Duration, hasError bool) {
	if a == nil {
		return
	}
	a.recorder.RecordRequest(responseTime, hasError)
}

// EvaluatePerformance 对协作方推送的表现做阈值评估，随后原样再发布。
func (a *App) EvaluatePerformance(m collab.PerformanceMetrics) {
	if a == nil {
		return
	}
	a.alerter.Evaluate(m)
	a.bus.Publish(events.TypePerformanceEvaluated, m)
}

// Bus 暴露事件总线供外部订阅。
func (a *App) Bus() *events.Bus {
	if a == nil {
		return nil
	}
	return a.bus
}

func (a *App) startupSummary() string {
	backtest := "off"
	if a.cfg.Monitor.BacktestEnabled {
		backtest = fmt.Sprintf("每 %s（合成行情 %d 天）", a.cfg.Monitor.BenchmarkInterval(), a.cfg.Monitor.BacktestDays)
		if !a.cfg.Monitor.RealtimeEnabled {
			backtest += "，定时器未启用（仅手动）"
		}
	}
	tg := "off"
	if a.tg != nil {
		tg = "on"
	}
	return fmt.Sprintf(
		"Vigil 启动（环境=%s）\n- HTTP：%s\n- 健康巡检：每 %s\n- 基准回测：%s\n- 阈值：sharpe≥%.2f dd≤%.0f%% winrate≥%.0f%% calib≤%.2f\n- Telegram：%s",
		a.cfg.App.Env,
		a.httpSrv.Addr(),
		a.cfg.Monitor.HealthCheckInterval(),
		backtest,
		a.cfg.Thresholds.MinSharpe,
		a.cfg.Thresholds.MaxDrawdown*100,
		a.cfg.Thresholds.MinWinRate*100,
		a.cfg.Thresholds.MaxCalibrationError,
		tg,
	)
}
