package notifier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram 把基准完成与性能告警推送到指定群/频道。
// 发送失败按 1s/2s/3s 退避重试，最多 3 次。
type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

var _ TextNotifier = (*Telegram)(nil)

// SendText 以 Markdown 格式推送一条文本消息。
func (t *Telegram) SendText(text string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram 未配置 bot_token/chat_id")
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, t.token)
	form := url.Values{
		"chat_id":    {t.chatID},
		"text":       {text},
		"parse_mode": {"Markdown"},
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if lastErr = t.post(endpoint, form); lastErr == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return fmt.Errorf("telegram 推送失败: %w", lastErr)
}

func (t *Telegram) post(endpoint string, form url.Values) error {
	resp, err := t.client.Post(endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reply struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("status=%d: %w", resp.StatusCode, err)
	}
	if !reply.OK {
		return fmt.Errorf("status=%d desc=%s", resp.StatusCode, reply.Description)
	}
	return nil
}
