package config

import (
	"fmt"
	"strings"
	"sync"

	"vigil/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LevelListener 在 log_level 变更时被调用。
type LevelListener func(level string)

// Watcher 监听主配置文件，仅热更新运行期可调字段（目前只有 app.log_level）。
// 阈值与调度参数加载后固定，变更需重启生效。
type Watcher struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	level     string
	listeners []LevelListener
}

// NewWatcher 读取配置文件并开始监听 FS 事件。
func NewWatcher(path string) (*Watcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config watcher requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}
	w := &Watcher{path: path, v: v, level: v.GetString("app.log_level")}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			logger.Errorf("配置热加载失败 (%s): %v", evt.Name, err)
			return
		}
		w.applyLevel(v.GetString("app.log_level"))
	})
	v.WatchConfig()
	return w, nil
}

// Subscribe 注册监听器，并立即收到一次当前级别。
func (w *Watcher) Subscribe(fn LevelListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	level := w.level
	w.mu.Unlock()
	fn(level)
}

func (w *Watcher) applyLevel(level string) {
	level = strings.ToLower(strings.TrimSpace(level))
	w.mu.Lock()
	if level == "" || level == w.level {
		w.mu.Unlock()
		return
	}
	w.level = level
	listeners := append([]LevelListener(nil), w.listeners...)
	w.mu.Unlock()
	logger.Infof("日志级别热更新为 %s", level)
	for _, fn := range listeners {
		fn(level)
	}
}
