package health

import "time"

// ComponentStatus 是单个协作方组件的健康状态，仅由 Checker 赋值。
type ComponentStatus string

const (
	StatusHealthy  ComponentStatus = "HEALTHY"
	StatusWarning  ComponentStatus = "WARNING"
	StatusCritical ComponentStatus = "CRITICAL"
)

// 五个被巡检的协作方组件名。
const (
	ComponentStateAnalyzer    = "state_analyzer"
	ComponentParameterManager = "parameter_manager"
	ComponentCalibration      = "calibration"
	ComponentHotUpdate        = "hot_update"
	ComponentStrategyEngine   = "strategy_engine"
)

// Metrics 是进程级资源与请求指标。
type Metrics struct {
	UptimeSeconds     float64 `json:"uptime_seconds"`
	MemoryRatio       float64 `json:"memory_ratio"`
	ErrorRate         float64 `json:"error_rate"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// SystemHealth 是整机健康记录。Overall 只能由归并规则推导，不允许直接设置。
type SystemHealth struct {
	Overall        ComponentStatus            `json:"overall"`
	Components     map[string]ComponentStatus `json:"components"`
	ProbeDurations map[string]float64         `json:"probe_durations_ms"`
	Metrics        Metrics                    `json:"metrics"`
	LastCheck      time.Time                  `json:"last_check"`
}

// Clone 返回深拷贝，调用方修改副本不影响原记录。
func (h SystemHealth) Clone() SystemHealth {
	out := h
	out.Components = make(map[string]ComponentStatus, len(h.Components))
	for k, v := range h.Components {
		out.Components[k] = v
	}
	out.ProbeDurations = make(map[string]float64, len(h.ProbeDurations))
	for k, v := range h.ProbeDurations {
		out.ProbeDurations[k] = v
	}
	return out
}

// Aggregate 是纯归并规则：任一 CRITICAL 则整体 CRITICAL，
// 否则任一 WARNING 则整体 WARNING，否则 HEALTHY。
func Aggregate(components map[string]ComponentStatus) ComponentStatus {
	overall := StatusHealthy
	for _, st := range components {
		switch st {
		case StatusCritical:
			return StatusCritical
		case StatusWarning:
			overall = StatusWarning
		}
	}
	return overall
}
