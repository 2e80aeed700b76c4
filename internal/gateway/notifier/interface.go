package notifier

// TextNotifier 是推送渠道的最小能力面。调用方只依赖本接口，
// 不感知具体渠道（目前只有 Telegram）。
type TextNotifier interface {
	SendText(text string) error
}
