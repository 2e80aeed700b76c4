package benchmark

import (
	"context"
	"fmt"
	"math"
	"time"

	"vigil/internal/collab"
	"vigil/internal/logger"
	"vigil/internal/market"
	"vigil/internal/perf"

	"github.com/shopspring/decimal"
)

const (
	// LookbackWindow 是传给策略的滑动窗口上限。
	LookbackWindow = 100
	// MinWindow 低于该根数不触发信号（热身不足）。
	MinWindow = 50
	// MaxHoldingBars 限制单笔持仓的最长根数。
	MaxHoldingBars = 24

	// 市场状态准确率目前是占位值，分类器侧尚未提供真实口径。
	marketStateAccuracyPlaceholder = 0.75
)

// Engine 将 K 线序列与策略协作方推演为一份基准结果。
type Engine struct {
	feeRate     float64
	calibration collab.CalibrationService
	params      collab.ParameterManager
}

// NewEngine 构建回测引擎。feeRate 为单边费率，负数按 0 处理。
func NewEngine(feeRate float64, calibration collab.CalibrationService, params collab.ParameterManager) *Engine {
	if feeRate < 0 {
		feeRate = 0
	}
	return &Engine{feeRate: feeRate, calibration: calibration, params: params}
}

// Run 用滑动回看窗口逐根回放 bars。单根信号失败只跳过该根，不会中断回测。
func (e *Engine) Run(ctx context.Context, bars []market.Candle, strategy collab.StrategyEngine, notional float64) (Result, error) {
	if strategy == nil {
		return Result{}, fmt.Errorf("策略协作方不能为空")
	}
	if len(bars) == 0 {
		return Result{}, fmt.Errorf("没有可用 K 线")
	}
	start := time.Now()

	roundTripFee := decimal.NewFromFloat(e.feeRate).Mul(decimal.NewFromInt(2))
	trades := make([]Trade, 0, len(bars)/8)
	returns := make([]float64, 0, len(bars)/8)
	totalReturn := 0.0
	drawdown := 0.0
	maxDrawdown := 0.0
	wins := 0

	for i := range bars {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
		winStart := 0
		if i+1 > LookbackWindow {
			winStart = i + 1 - LookbackWindow
		}
		window := bars[winStart : i+1]
		if len(window) < MinWindow {
			continue
		}
		entry := bars[i].Close
		sig, err := strategy.GenerateSignal(ctx, window, entry, notional)
		if err != nil {
			logger.Warnf("[benchmark] 第 %d 根信号生成失败，跳过: %v", i, err)
			continue
		}
		direction := 0.0
		switch sig.Action {
		case collab.ActionBuy:
			direction = 1
		case collab.ActionSell:
			direction = -1
		default:
			continue
		}
		if entry <= 0 {
			continue
		}
		holdingBars := int(sig.HoldingDuration / time.Hour)
		if holdingBars > MaxHoldingBars {
			holdingBars = MaxHoldingBars
		}
		if holdingBars < 0 {
			holdingBars = 0
		}
		exitIdx := i + holdingBars
		if exitIdx > len(bars)-1 {
			exitIdx = len(bars) - 1
		}
		leverage := sig.Leverage
		if leverage <= 0 {
			leverage = 1
		}

		dEntry := decimal.NewFromFloat(entry)
		change := decimal.NewFromFloat(bars[exitIdx].Close).Sub(dEntry).Div(dEntry)
		ret := change.
			Mul(decimal.NewFromFloat(direction)).
			Mul(decimal.NewFromFloat(leverage)).
			Sub(roundTripFee).
			InexactFloat64()

		trades = append(trades, Trade{EntryIndex: i, ExitIndex: exitIdx, Return: ret, Signal: sig})
		returns = append(returns, ret)
		totalReturn += ret
		if ret > 0 {
			wins++
		}
		if ret < 0 {
			drawdown += math.Abs(ret)
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		} else {
			drawdown = math.Max(0, drawdown-ret)
		}
	}

	total := len(trades)
	winRate := 0.0
	avgReturn := 0.0
	if total > 0 {
		winRate = float64(wins) / float64(total)
		avgReturn = totalReturn / float64(total)
	}
	volatility := perf.Volatility(returns)
	brier, calibErr := e.calibrationAverages(ctx)

	return Result{
		Duration:            time.Since(start),
		SharpeRatio:         perf.Sharpe(avgReturn, volatility),
		SortinoRatio:        perf.Sortino(returns),
		CalmarRatio:         perf.Calmar(totalReturn, maxDrawdown),
		MaxDrawdown:         maxDrawdown,
		WinRate:             winRate,
		TotalTrades:         total,
		TotalReturn:         totalReturn,
		AvgReturn:           avgReturn,
		Volatility:          volatility,
		ProfitFactor:        perf.ProfitFactor(returns),
		BrierScore:          brier,
		CalibrationError:    calibErr,
		MarketStateAccuracy: marketStateAccuracyPlaceholder,
		ParameterStability:  e.parameterStability(ctx),
		Timestamp:           time.Now(),
	}, nil
}

// calibrationAverages 对校准协作方的逐模型指标取平均，取不到时回落为 0。
func (e *Engine) calibrationAverages(ctx context.Context) (brier, calibErr float64) {
	if e.calibration == nil {
		return 0, 0
	}
	perfMap, err := e.calibration.CalibrationPerformance(ctx)
	if err != nil {
		logger.Debugf("[benchmark] 获取校准指标失败: %v", err)
		return 0, 0
	}
	if len(perfMap) == 0 {
		return 0, 0
	}
	for _, m := range perfMap {
		brier += m.BrierScore
		calibErr += m.CalibrationError
	}
	n := float64(len(perfMap))
	return brier / n, calibErr / n
}

func (e *Engine) parameterStability(ctx context.Context) float64 {
	if e.params == nil {
		return 0
	}
	stats, err := e.params.ParameterStats(ctx)
	if err != nil {
		logger.Debugf("[benchmark] 获取参数统计失败: %v", err)
		return 0
	}
	return stats.ParameterStability
}
