package config

import "fmt"

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Monitor.validate(); err != nil {
		return err
	}
	if err := c.Thresholds.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MonitorConfig) validate() error {
	if m.HealthCheckIntervalSeconds <= 0 {
		return fmt.Errorf("monitor.health_check_interval_seconds must be > 0")
	}
	if m.BenchmarkIntervalMinutes <= 0 {
		return fmt.Errorf("monitor.benchmark_interval_minutes must be > 0")
	}
	if m.BacktestDays <= 0 {
		return fmt.Errorf("monitor.backtest_days must be > 0")
	}
	if m.NotionalUSD <= 0 {
		return fmt.Errorf("monitor.notional_usd must be > 0")
	}
	if m.FeeRate < 0 {
		return fmt.Errorf("monitor.fee_rate must be >= 0")
	}
	return nil
}

func (t *ThresholdsConfig) validate() error {
	if t.MinSharpe < 0 {
		return fmt.Errorf("thresholds.min_sharpe must be >= 0")
	}
	if t.MaxDrawdown <= 0 || t.MaxDrawdown > 1 {
		return fmt.Errorf("thresholds.max_drawdown must be in (0, 1]")
	}
	if t.MinWinRate < 0 || t.MinWinRate > 1 {
		return fmt.Errorf("thresholds.min_win_rate must be in [0, 1]")
	}
	if t.MaxCalibrationError <= 0 {
		return fmt.Errorf("thresholds.max_calibration_error must be > 0")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	tg := n.Telegram
	if !tg.Enabled {
		return nil
	}
	if tg.BotToken == "" || tg.ChatID == "" {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}
