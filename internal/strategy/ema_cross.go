package strategy

import (
	"context"
	"sync"
	"time"

	"vigil/internal/collab"
	"vigil/internal/market"

	talib "github.com/markcheno/go-talib"
)

// EMACross 是内置的参考策略：快慢 EMA 金叉做多、死叉做空。
// 平台正常运行时信号由外部策略服务提供，本实现用于独立运行与合成基准。
type EMACross struct {
	Fast     int
	Slow     int
	Leverage float64
	Holding  time.Duration

	mu    sync.Mutex
	hooks collab.StrategyHooks
}

func NewEMACross() *EMACross {
	return &EMACross{
		Fast:     9,
		Slow:     21,
		Leverage: 2,
		Holding:  4 * time.Hour,
	}
}

func (s *EMACross) GenerateSignal(ctx context.Context, window []market.Candle, currentPrice, notional float64) (collab.StrategySignal, error) {
	hold := collab.StrategySignal{Action: collab.ActionHold}
	if len(window) < s.Slow+2 {
		return hold, nil
	}
	closes := make([]float64, len(window))
	for i, c := range window {
		closes[i] = c.Close
	}
	fast := talib.Ema(closes, s.Fast)
	slow := talib.Ema(closes, s.Slow)
	last := len(closes) - 1
	prev := last - 1

	crossedUp := fast[prev] <= slow[prev] && fast[last] > slow[last]
	crossedDown := fast[prev] >= slow[prev] && fast[last] < slow[last]
	action := collab.ActionHold
	switch {
	case crossedUp:
		action = collab.ActionBuy
	case crossedDown:
		action = collab.ActionSell
	default:
		return hold, nil
	}
	spread := 0.0
	if slow[last] != 0 {
		spread = (fast[last] - slow[last]) / slow[last]
	}
	return collab.StrategySignal{
		Action:          action,
		Leverage:        s.Leverage,
		HoldingDuration: s.Holding,
		Confidence:      0.5,
		Meta: map[string]any{
			"strategy":   "ema_cross",
			"ema_spread": spread,
		},
	}, nil
}

func (s *EMACross) ServiceStatus(ctx context.Context) (collab.ServiceStatus, error) {
	return collab.ServiceStatus{Running: true, Detail: "ema_cross"}, nil
}

func (s *EMACross) SetHooks(hooks collab.StrategyHooks) {
	s.mu.Lock()
	s.hooks = hooks
	s.mu.Unlock()
}
