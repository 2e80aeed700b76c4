package market

import (
	"math"
	"math/rand"
	"time"
)

// SyntheticGenerator 在缺少真实历史时生成随机游走 K 线序列。
// 随机源可注入种子，保证基准测试可复现。
type SyntheticGenerator struct {
	rng *rand.Rand

	BasePrice  float64       // 起始价格
	Volatility float64       // 单根 K 线的价格波动幅度（比例）
	Interval   time.Duration // K 线周期
}

// NewSyntheticGenerator 以给定种子构建生成器。相同种子产出相同序列。
func NewSyntheticGenerator(seed int64) *SyntheticGenerator {
	return &SyntheticGenerator{
		rng:        rand.New(rand.NewSource(seed)),
		BasePrice:  50000,
		Volatility: 0.02,
		Interval:   time.Hour,
	}
}

// Generate 产出 days 天的小时级 K 线（随机游走，最低价格钳制在起始价 10%）。
func (g *SyntheticGenerator) Generate(days int, end time.Time) []Candle {
	if days <= 0 {
		return nil
	}
	interval := g.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	count := int(time.Duration(days) * 24 * time.Hour / interval)
	if count <= 0 {
		return nil
	}
	floor := g.BasePrice * 0.1
	price := g.BasePrice
	start := end.Add(-time.Duration(count) * interval)
	bars := make([]Candle, 0, count)
	for i := 0; i < count; i++ {
		openTime := start.Add(time.Duration(i) * interval)
		open := price
		change := (g.rng.Float64() - 0.5) * g.Volatility
		price = math.Max(floor, price*(1+change))
		high := math.Max(open, price) * (1 + g.rng.Float64()*g.Volatility/4)
		low := math.Min(open, price) * (1 - g.rng.Float64()*g.Volatility/4)
		bars = append(bars, Candle{
			OpenTime:  openTime.UnixMilli(),
			CloseTime: openTime.Add(interval).UnixMilli() - 1,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     price,
			Volume:    1000 + g.rng.Float64()*9000,
		})
	}
	return bars
}
