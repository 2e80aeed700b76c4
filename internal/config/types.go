package config

import "time"

// Config 是 Vigil 的主配置载体。
type Config struct {
	App        AppConfig        `toml:"app"`
	Monitor    MonitorConfig    `toml:"monitor"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Notify     NotifyConfig     `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// MonitorConfig 控制健康巡检与基准回测的调度行为。
type MonitorConfig struct {
	HealthCheckIntervalSeconds int     `toml:"health_check_interval_seconds"`
	BenchmarkIntervalMinutes   int     `toml:"benchmark_interval_minutes"`
	RealtimeEnabled            bool    `toml:"realtime_enabled"`
	BacktestEnabled            bool    `toml:"backtest_enabled"`
	BacktestDays               int     `toml:"backtest_days"`
	NotionalUSD                float64 `toml:"notional_usd"`
	FeeRate                    float64 `toml:"fee_rate"`
}

func (m MonitorConfig) HealthCheckInterval() time.Duration {
	return time.Duration(m.HealthCheckIntervalSeconds) * time.Second
}

func (m MonitorConfig) BenchmarkInterval() time.Duration {
	return time.Duration(m.BenchmarkIntervalMinutes) * time.Minute
}

// ThresholdsConfig 定义性能告警阈值，加载后不可修改。
type ThresholdsConfig struct {
	MinSharpe           float64 `toml:"min_sharpe"`
	MaxDrawdown         float64 `toml:"max_drawdown"`
	MinWinRate          float64 `toml:"min_win_rate"`
	MaxCalibrationError float64 `toml:"max_calibration_error"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	if k == nil || path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if k == nil || path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}
