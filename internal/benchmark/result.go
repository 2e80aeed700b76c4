package benchmark

import (
	"time"

	"vigil/internal/collab"
)

// Trade 是一次模拟成交，只在单次回测内存在。
type Trade struct {
	EntryIndex int                   `json:"entry_index"`
	ExitIndex  int                   `json:"exit_index"`
	Return     float64               `json:"return"`
	Signal     collab.StrategySignal `json:"signal"`
}

// Result 是一次基准回测的不可变快照。
type Result struct {
	RunID               string        `json:"run_id"`
	Duration            time.Duration `json:"duration"`
	SharpeRatio         float64       `json:"sharpe_ratio"`
	SortinoRatio        float64       `json:"sortino_ratio"`
	CalmarRatio         float64       `json:"calmar_ratio"`
	MaxDrawdown         float64       `json:"max_drawdown"`
	WinRate             float64       `json:"win_rate"`
	TotalTrades         int           `json:"total_trades"`
	TotalReturn         float64       `json:"total_return"`
	AvgReturn           float64       `json:"avg_return"`
	Volatility          float64       `json:"volatility"`
	ProfitFactor        float64       `json:"profit_factor"`
	BrierScore          float64       `json:"brier_score"`
	CalibrationError    float64       `json:"calibration_error"`
	MarketStateAccuracy float64       `json:"market_state_accuracy"`
	ParameterStability  float64       `json:"parameter_stability"`
	Timestamp           time.Time     `json:"timestamp"`
}
