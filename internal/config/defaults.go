package config

import "strings"

// 默认值常量
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9992"

	defaultHealthCheckIntervalSeconds = 30
	defaultBenchmarkIntervalMinutes   = 60
	defaultBacktestDays               = 7
	defaultNotionalUSD                = 10000
	defaultFeeRate                    = 0.001

	defaultMinSharpe           = 1.0
	defaultMaxDrawdown         = 0.2
	defaultMinWinRate          = 0.4
	defaultMaxCalibrationError = 0.15
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Monitor.applyDefaults(keys)
	c.Thresholds.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (m *MonitorConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "monitor.health_check_interval_seconds",
			need:  func() bool { return m.HealthCheckIntervalSeconds <= 0 },
			apply: func() { m.HealthCheckIntervalSeconds = defaultHealthCheckIntervalSeconds },
		},
		fieldDefault{
			key:   "monitor.benchmark_interval_minutes",
			need:  func() bool { return m.BenchmarkIntervalMinutes <= 0 },
			apply: func() { m.BenchmarkIntervalMinutes = defaultBenchmarkIntervalMinutes },
		},
		boolFieldDefault("monitor.realtime_enabled", &m.RealtimeEnabled, true),
		boolFieldDefault("monitor.backtest_enabled", &m.BacktestEnabled, true),
		fieldDefault{
			key:   "monitor.backtest_days",
			need:  func() bool { return m.BacktestDays <= 0 },
			apply: func() { m.BacktestDays = defaultBacktestDays },
		},
		fieldDefault{
			key:   "monitor.notional_usd",
			need:  func() bool { return m.NotionalUSD <= 0 },
			apply: func() { m.NotionalUSD = defaultNotionalUSD },
		},
		fieldDefault{
			key:   "monitor.fee_rate",
			need:  func() bool { return m.FeeRate < 0 },
			apply: func() { m.FeeRate = 0 },
		},
		fieldDefault{
			key:   "monitor.fee_rate",
			need:  func() bool { return m.FeeRate == 0 },
			apply: func() { m.FeeRate = defaultFeeRate },
		},
	)
}

func (t *ThresholdsConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "thresholds.min_sharpe",
			need:  func() bool { return t.MinSharpe == 0 },
			apply: func() { t.MinSharpe = defaultMinSharpe },
		},
		fieldDefault{
			key:   "thresholds.max_drawdown",
			need:  func() bool { return t.MaxDrawdown <= 0 },
			apply: func() { t.MaxDrawdown = defaultMaxDrawdown },
		},
		fieldDefault{
			key:   "thresholds.min_win_rate",
			need:  func() bool { return t.MinWinRate <= 0 },
			apply: func() { t.MinWinRate = defaultMinWinRate },
		},
		fieldDefault{
			key:   "thresholds.max_calibration_error",
			need:  func() bool { return t.MaxCalibrationError <= 0 },
			apply: func() { t.MaxCalibrationError = defaultMaxCalibrationError },
		},
	)
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
