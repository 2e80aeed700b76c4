package alert

import (
	"testing"

	"vigil/internal/collab"
	"vigil/internal/config"
	"vigil/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultThresholds() config.ThresholdsConfig {
	return config.ThresholdsConfig{
		MinSharpe:           1.0,
		MaxDrawdown:         0.2,
		MinWinRate:          0.4,
		MaxCalibrationError: 0.15,
	}
}

func goodMetrics() collab.PerformanceMetrics {
	return collab.PerformanceMetrics{
		SharpeRatio:      1.5,
		MaxDrawdown:      0.1,
		WinRate:          0.6,
		CalibrationError: 0.05,
	}
}

func TestEvaluateNoViolations(t *testing.T) {
	bus := events.NewBus()
	published := 0
	bus.Subscribe(events.TypeWarning, func(events.Event) { published++ })
	a := New(defaultThresholds(), bus)

	warnings := a.Evaluate(goodMetrics())
	assert.Nil(t, warnings)
	assert.Equal(t, 0, published)
}

func TestEvaluateSharpeBelowFloor(t *testing.T) {
	bus := events.NewBus()
	var got []events.Event
	bus.Subscribe(events.TypeWarning, func(ev events.Event) { got = append(got, ev) })
	a := New(defaultThresholds(), bus)

	m := goodMetrics()
	m.SharpeRatio = 0.5
	warnings := a.Evaluate(m)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "夏普比率")

	require.Len(t, got, 1)
	payload, ok := got[0].Payload.(events.WarningPayload)
	require.True(t, ok)
	assert.Equal(t, WarningKind, payload.Kind)
	assert.Equal(t, warnings, payload.Warnings)
	assert.Equal(t, m, payload.Metrics)
}

func TestEvaluateMultipleViolationsSingleEvent(t *testing.T) {
	bus := events.NewBus()
	published := 0
	bus.Subscribe(events.TypeWarning, func(events.Event) { published++ })
	a := New(defaultThresholds(), bus)

	warnings := a.Evaluate(collab.PerformanceMetrics{
		SharpeRatio:      0.2,
		MaxDrawdown:      0.5,
		WinRate:          0.1,
		CalibrationError: 0.3,
	})

	assert.Len(t, warnings, 4)
	// 多项越界仍只发一条聚合告警
	assert.Equal(t, 1, published)
}

func TestEvaluateBoundaryValues(t *testing.T) {
	a := New(defaultThresholds(), nil)

	// 恰好等于阈值不告警
	warnings := a.Evaluate(collab.PerformanceMetrics{
		SharpeRatio:      1.0,
		MaxDrawdown:      0.2,
		WinRate:          0.4,
		CalibrationError: 0.15,
	})
	assert.Nil(t, warnings)
}

func TestEvaluateNilBus(t *testing.T) {
	a := New(defaultThresholds(), nil)
	m := goodMetrics()
	m.WinRate = 0.1
	// 没有事件总线时仍返回文案
	warnings := a.Evaluate(m)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "胜率")
}
