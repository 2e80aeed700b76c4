package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticGenerateShape(t *testing.T) {
	g := NewSyntheticGenerator(42)
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	bars := g.Generate(7, end)

	require.Len(t, bars, 7*24)
	for i, b := range bars {
		assert.Greater(t, b.Close, 0.0, "bar %d", i)
		assert.GreaterOrEqual(t, b.High, b.Open, "bar %d", i)
		assert.GreaterOrEqual(t, b.High, b.Close, "bar %d", i)
		assert.LessOrEqual(t, b.Low, b.Open, "bar %d", i)
		assert.LessOrEqual(t, b.Low, b.Close, "bar %d", i)
		assert.Less(t, b.OpenTime, b.CloseTime, "bar %d", i)
		if i > 0 {
			// 相邻 K 线首尾衔接
			assert.Equal(t, bars[i-1].CloseTime+1, b.OpenTime, "bar %d", i)
			assert.Equal(t, bars[i-1].Close, b.Open, "bar %d", i)
		}
	}
	lastClose := time.UnixMilli(bars[len(bars)-1].CloseTime + 1)
	assert.True(t, lastClose.Equal(end))
}

func TestSyntheticDeterministicBySeed(t *testing.T) {
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	a := NewSyntheticGenerator(7).Generate(2, end)
	b := NewSyntheticGenerator(7).Generate(2, end)
	c := NewSyntheticGenerator(8).Generate(2, end)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSyntheticInvalidInput(t *testing.T) {
	g := NewSyntheticGenerator(1)
	assert.Nil(t, g.Generate(0, time.Now()))
	assert.Nil(t, g.Generate(-3, time.Now()))
}

func TestSyntheticPriceFloor(t *testing.T) {
	g := NewSyntheticGenerator(99)
	g.BasePrice = 100
	g.Volatility = 1.5 // 夸张波动逼近下限
	bars := g.Generate(30, time.Now())
	for _, b := range bars {
		assert.GreaterOrEqual(t, b.Close, 10.0)
	}
}
