package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"log/slog"
)

// 进程级日志封装：slog 文本输出，级别可在运行期切换（配置热更新只调级别），
// 输出目标在启动时设定一次。

var (
	level slog.LevelVar

	mu   sync.RWMutex
	base = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
)

func init() {
	level.Set(slog.LevelInfo)
}

// SetOutput 重建底层 handler 指向新的输出目标，nil 回落到标准输出。
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level}))
	mu.Lock()
	base = l
	mu.Unlock()
}

// SetLevel 按名称切换级别，无法识别的名称回落为 info。
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debugf(format string, v ...any) {
	current().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	current().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	current().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	current().Error(fmt.Sprintf(format, v...))
}

// InfoBlock 逐行输出多行文本，用于启动摘要。
func InfoBlock(block string) {
	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		if line = strings.TrimRight(line, " "); line != "" {
			Infof("%s", line)
		}
	}
}
