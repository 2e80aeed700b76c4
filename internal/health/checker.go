package health

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"vigil/internal/collab"
	"vigil/internal/events"
	"vigil/internal/logger"
	"vigil/internal/market"
)

type probe struct {
	component string
	check     func(ctx context.Context) error
}

type CheckerConfig struct {
	StateAnalyzer collab.StateAnalyzer
	Params        collab.ParameterManager
	Calibration   collab.CalibrationService
	HotUpdate     collab.HotUpdateService
	Strategy      collab.StrategyEngine
	Bus           *events.Bus
	Recorder      *Recorder
	Interval      time.Duration
}

// Checker 周期性探活五个协作方并维护整机健康记录。
// 探测按固定顺序串行，单个失败只标记该组件 CRITICAL，不中断其余探测。
type Checker struct {
	probes   []probe
	bus      *events.Bus
	recorder *Recorder
	interval time.Duration

	mu        sync.Mutex
	health    SystemHealth
	startedAt time.Time
	stopped   bool
	stopCh    chan struct{}
}

func NewChecker(cfg CheckerConfig) (*Checker, error) {
	if cfg.Bus == nil {
		return nil, fmt.Errorf("event bus 不能为空")
	}
	if cfg.Recorder == nil {
		cfg.Recorder = NewRecorder()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &Checker{
		bus:       cfg.Bus,
		recorder:  cfg.Recorder,
		interval:  interval,
		startedAt: time.Now(),
		stopCh:    make(chan struct{}),
		health: SystemHealth{
			Overall:        StatusHealthy,
			Components:     make(map[string]ComponentStatus),
			ProbeDurations: make(map[string]float64),
		},
	}
	c.probes = []probe{
		{ComponentStateAnalyzer, func(ctx context.Context) error {
			if cfg.StateAnalyzer == nil {
				return fmt.Errorf("未接入")
			}
			_, err := cfg.StateAnalyzer.Analyze(ctx, map[string][]market.Candle{}, 0, 0)
			return err
		}},
		{ComponentParameterManager, func(ctx context.Context) error {
			if cfg.Params == nil {
				return fmt.Errorf("未接入")
			}
			_, err := cfg.Params.CurrentParameters(ctx)
			return err
		}},
		{ComponentCalibration, func(ctx context.Context) error {
			if cfg.Calibration == nil {
				return fmt.Errorf("未接入")
			}
			_, err := cfg.Calibration.Status(ctx)
			return err
		}},
		{ComponentHotUpdate, func(ctx context.Context) error {
			if cfg.HotUpdate == nil {
				return fmt.Errorf("未接入")
			}
			_, err := cfg.HotUpdate.ServiceStatus(ctx)
			return err
		}},
		{ComponentStrategyEngine, func(ctx context.Context) error {
			if cfg.Strategy == nil {
				return fmt.Errorf("未接入")
			}
			_, err := cfg.Strategy.ServiceStatus(ctx)
			return err
		}},
	}
	return c, nil
}

// Run 按间隔执行巡检直到 ctx 取消或 Stop。启动时立即先跑一轮。
func (c *Checker) Run(ctx context.Context) {
	c.CheckHealth(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.CheckHealth(ctx)
		}
	}
}

// Stop 停止巡检定时器，幂等。
func (c *Checker) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()
	close(c.stopCh)
}

// CheckHealth 执行一轮完整巡检并原地更新健康记录，自身从不报错。
// 整体状态只在全部探测收尾后重新归并。
func (c *Checker) CheckHealth(ctx context.Context) {
	statuses := make(map[string]ComponentStatus, len(c.probes))
	durations := make(map[string]float64, len(c.probes))
	for _, p := range c.probes {
		start := time.Now()
		err := c.runProbe(ctx, p)
		durations[p.component] = float64(time.Since(start).Milliseconds())
		if err != nil {
			statuses[p.component] = StatusCritical
			logger.Warnf("[health] 组件 %s 探活失败: %v", p.component, err)
			c.bus.PublishError(p.component, "health_probe", err)
			continue
		}
		statuses[p.component] = StatusHealthy
	}

	c.mu.Lock()
	for k, v := range statuses {
		c.health.Components[k] = v
	}
	for k, v := range durations {
		c.health.ProbeDurations[k] = v
	}
	c.health.Overall = Aggregate(c.health.Components)
	c.health.Metrics = c.refreshMetrics()
	c.health.LastCheck = time.Now()
	c.mu.Unlock()
}

// runProbe 把单个探测隔离在自己的边界内，协作方 panic 也不会外溢。
func (c *Checker) runProbe(ctx context.Context, p probe) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	return p.check(ctx)
}

func (c *Checker) refreshMetrics() Metrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	memRatio := 0.0
	if ms.HeapSys > 0 {
		memRatio = float64(ms.HeapAlloc) / float64(ms.HeapSys)
	}
	return Metrics{
		UptimeSeconds:     time.Since(c.startedAt).Seconds(),
		MemoryRatio:       memRatio,
		ErrorRate:         c.recorder.ErrorRate(),
		AvgResponseTimeMs: float64(c.recorder.AvgResponseTime().Microseconds()) / 1000,
	}
}

// Snapshot 返回健康记录的防御性拷贝。
func (c *Checker) Snapshot() SystemHealth {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health.Clone()
}

// Recorder 暴露请求计数器给宿主。
func (c *Checker) Recorder() *Recorder {
	return c.recorder
}
