package benchmark

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vigil/internal/collab"
	"vigil/internal/events"
	"vigil/internal/logger"
	"vigil/internal/market"

	"github.com/google/uuid"
)

// HistoryCap 限制内存中保留的基准结果条数，最旧的先被淘汰。
const HistoryCap = 100

var (
	ErrStopped     = errors.New("基准调度器已停止")
	ErrRunInFlight = errors.New("上一次基准仍在运行")
)

// BarSource 提供回测输入序列（真实历史缺失时由合成行情兜底）。
type BarSource interface {
	BenchmarkBars(ctx context.Context) ([]market.Candle, error)
}

// Notifier 用于运行完成后的推送（Telegram 等）。
type Notifier interface {
	SendText(text string) error
}

type SchedulerConfig struct {
	Engine   *Engine
	Source   BarSource
	Strategy collab.StrategyEngine
	Notional float64
	Interval time.Duration
	Bus      *events.Bus
	Notifier Notifier
}

// Scheduler 按间隔或手动触发回测，持有容量受限的结果历史。
// 同一时刻只允许一次在途运行；Stop 后在途结果被丢弃。
type Scheduler struct {
	engine   *Engine
	source   BarSource
	strategy collab.StrategyEngine
	notional float64
	interval time.Duration
	bus      *events.Bus
	notifier Notifier

	mu       sync.Mutex
	history  []Result
	inFlight bool
	stopped  bool
	stopCh   chan struct{}
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine 不能为空")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("bar source 不能为空")
	}
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("strategy 不能为空")
	}
	if cfg.Bus == nil {
		return nil, fmt.Errorf("event bus 不能为空")
	}
	notional := cfg.Notional
	if notional <= 0 {
		notional = 10000
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		engine:   cfg.Engine,
		source:   cfg.Source,
		strategy: cfg.Strategy,
		notional: notional,
		interval: interval,
		bus:      cfg.Bus,
		notifier: cfg.Notifier,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start 启动定时触发。只有配置启用实时测试时才由宿主调用。
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil {
					switch {
					case errors.Is(err, ErrStopped):
						return
					case errors.Is(err, ErrRunInFlight):
						logger.Warnf("[benchmark] 上一轮仍在进行，跳过本轮定时触发")
					default:
						logger.Warnf("[benchmark] 定时运行失败: %v", err)
					}
				}
			}
		}
	}()
}

// RunOnce 执行一次基准回测（定时器与手动触发共用入口）。
// 运行失败会记录并上抛给调用方，但不影响历史与后续定时触发。
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return Result{}, ErrStopped
	}
	if s.inFlight {
		s.mu.Unlock()
		return Result{}, ErrRunInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	bars, err := s.source.BenchmarkBars(ctx)
	if err != nil {
		err = fmt.Errorf("获取回测行情失败: %w", err)
		logger.Warnf("[benchmark] %v", err)
		s.bus.PublishError("benchmark", "load_bars", err)
		return Result{}, err
	}
	res, err := s.engine.Run(ctx, bars, s.strategy, s.notional)
	if err != nil {
		err = fmt.Errorf("基准回测失败: %w", err)
		logger.Warnf("[benchmark] %v", err)
		s.bus.PublishError("benchmark", "run", err)
		return Result{}, err
	}
	res.RunID = uuid.NewString()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		logger.Debugf("[benchmark] 调度器已停止，丢弃在途结果 %s", res.RunID)
		return res, nil
	}
	s.appendLocked(res)
	s.mu.Unlock()

	s.bus.Publish(events.TypeBenchmarkCompleted, res)
	s.notify(res)
	return res, nil
}

func (s *Scheduler) appendLocked(res Result) {
	s.history = append(s.history, res)
	if len(s.history) > HistoryCap {
		s.history = s.history[len(s.history)-HistoryCap:]
	}
}

// History 按时间先后返回最近 limit 条结果（最新在末尾）。limit<=0 返回全部。
func (s *Scheduler) History(limit int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Result, limit)
	copy(out, s.history[n-limit:])
	return out
}

// Latest 返回最近一次结果。
func (s *Scheduler) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return Result{}, false
	}
	return s.history[len(s.history)-1], true
}

// HistoryLen 返回当前历史条数。
func (s *Scheduler) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Stop 停止定时触发，幂等。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()
	close(s.stopCh)
}

func (s *Scheduler) notify(res Result) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("*基准回测完成* ✅\n```\nid      : %s\nsharpe  : %.2f\nsortino : %.2f\nwinrate : %.2f%% (%d 笔)\nmaxDD   : %.2f%%\npf      : %.2f\n```\n",
		res.RunID, res.SharpeRatio, res.SortinoRatio, res.WinRate*100, res.TotalTrades, res.MaxDrawdown*100, res.ProfitFactor)
	if err := s.notifier.SendText(msg); err != nil {
		logger.Warnf("基准结果通知失败: %v", err)
	}
}
