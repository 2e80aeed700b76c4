package alert

import (
	"fmt"

	"vigil/internal/collab"
	"vigil/internal/config"
	"vigil/internal/events"
)

// WarningKind 是 WARNING 事件的 type 标签。
const WarningKind = "performance_degradation"

// Alerter 将外部推送的策略表现与配置阈值比对，越界时汇总为一条 WARNING 事件。
// 阈值在构建后不再变化。
type Alerter struct {
	thresholds config.ThresholdsConfig
	bus        *events.Bus
}

func New(thresholds config.ThresholdsConfig, bus *events.Bus) *Alerter {
	return &Alerter{thresholds: thresholds, bus: bus}
}

// Evaluate 检查四项阈值，命中越界时发布一条聚合 WARNING；无越界时不发事件。
// 返回告警文案列表便于调用方记录。
func (a *Alerter) Evaluate(m collab.PerformanceMetrics) []string {
	th := a.thresholds
	var warnings []string
	if m.SharpeRatio < th.MinSharpe {
		warnings = append(warnings, fmt.Sprintf("夏普比率 %.2f 低于下限 %.2f", m.SharpeRatio, th.MinSharpe))
	}
	if m.MaxDrawdown > th.MaxDrawdown {
		warnings = append(warnings, fmt.Sprintf("最大回撤 %.2f%% 超过上限 %.2f%%", m.MaxDrawdown*100, th.MaxDrawdown*100))
	}
	if m.WinRate < th.MinWinRate {
		warnings = append(warnings, fmt.Sprintf("胜率 %.2f%% 低于下限 %.2f%%", m.WinRate*100, th.MinWinRate*100))
	}
	if m.CalibrationError > th.MaxCalibrationError {
		warnings = append(warnings, fmt.Sprintf("校准误差 %.3f 超过上限 %.3f", m.CalibrationError, th.MaxCalibrationError))
	}
	if len(warnings) == 0 {
		return nil
	}
	if a.bus != nil {
		a.bus.Publish(events.TypeWarning, events.WarningPayload{
			Kind:     WarningKind,
			Warnings: warnings,
			Metrics:  m,
		})
	}
	return warnings
}
