package collab

import (
	"context"
	"time"

	"vigil/internal/market"
)

// SignalAction 表示策略信号方向。
type SignalAction string

const (
	ActionBuy  SignalAction = "BUY"
	ActionSell SignalAction = "SELL"
	ActionHold SignalAction = "HOLD"
)

// StrategySignal 是策略协作方的输出。本核心只读取
// Action/Leverage/HoldingDuration，其余字段原样透传。
type StrategySignal struct {
	Action          SignalAction   `json:"action"`
	Leverage        float64        `json:"leverage"`
	HoldingDuration time.Duration  `json:"holding_duration"`
	Confidence      float64        `json:"confidence,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
}

// ServiceStatus 是协作方自述的运行状态。
type ServiceStatus struct {
	Running bool   `json:"running"`
	Detail  string `json:"detail,omitempty"`
}

// PerformanceMetrics 由策略协作方周期性推送，用于阈值评估。
type PerformanceMetrics struct {
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
	CalibrationError float64 `json:"calibration_error"`
	TotalTrades      int     `json:"total_trades,omitempty"`
}

// ParameterAdjustment 描述参数管理器的一次动态调整。
type ParameterAdjustment struct {
	Reason  string             `json:"reason,omitempty"`
	Changes map[string]float64 `json:"changes,omitempty"`
}

// ParameterStats 汇总参数管理器的自适应统计。
type ParameterStats struct {
	ParameterStability float64 `json:"parameter_stability"`
	AdjustmentCount    int     `json:"adjustment_count,omitempty"`
}

// CalibrationMetrics 是单个模型的概率校准表现。
type CalibrationMetrics struct {
	BrierScore       float64 `json:"brier_score"`
	CalibrationError float64 `json:"calibration_error"`
}

// StateAnalyzer 市场状态分类器。本核心仅用 Analyze 作能力探活。
type StateAnalyzer interface {
	Analyze(ctx context.Context, klines map[string][]market.Candle, fundingRate, openInterest float64) (map[string]any, error)
}

// ParameterManager 自适应参数管理器。
type ParameterManager interface {
	CurrentParameters(ctx context.Context) (map[string]float64, error)
	ParameterStats(ctx context.Context) (ParameterStats, error)
}

// CalibrationService 概率校准服务。
type CalibrationService interface {
	Status(ctx context.Context) (ServiceStatus, error)
	CalibrationPerformance(ctx context.Context) (map[string]CalibrationMetrics, error)
}

// HotUpdateService 参数热更新服务。
type HotUpdateService interface {
	ServiceStatus(ctx context.Context) (ServiceStatus, error)
}

// StrategyHooks 由宿主注入，接收策略协作方的异步通知。
type StrategyHooks struct {
	OnError              func(err error)
	OnPerformanceUpdated func(m PerformanceMetrics)
	OnParametersAdjusted func(adj ParameterAdjustment)
}

// StrategyEngine 策略信号生成器。
type StrategyEngine interface {
	GenerateSignal(ctx context.Context, window []market.Candle, currentPrice, notional float64) (StrategySignal, error)
	ServiceStatus(ctx context.Context) (ServiceStatus, error)
	SetHooks(hooks StrategyHooks)
}
