package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load 读取主配置文件（含 include 展开），应用默认值并校验。
// include 深度优先合并，主文件最后合并、优先级最高。
func Load(path string) (*Config, error) {
	files, err := expandIncludes(path)
	if err != nil {
		return nil, err
	}
	merged := viper.New()
	merged.SetConfigType("yaml")
	for _, file := range files {
		part := viper.New()
		part.SetConfigFile(file)
		if err := part.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败 (%s): %w", file, err)
		}
		if err := merged.MergeConfigMap(part.AllSettings()); err != nil {
			return nil, fmt.Errorf("合并配置失败 (%s): %w", file, err)
		}
	}

	var cfg Config
	if err := merged.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 记录文件中显式出现过的键，显式写 0/false 的键不再套默认值
	keys := make(keySet)
	keys.collect("", merged.AllSettings())
	cfg.applyDefaults(keys)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回纯默认配置（不读取任何文件），供嵌入式使用与测试。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults(make(keySet))
	return cfg
}

// expandIncludes 返回 path 及其 include 闭包，按合并次序排列（被包含者在前）。
func expandIncludes(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("配置路径不能为空")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	stack := make(map[string]bool)
	return walkIncludes(abs, seen, stack)
}

func walkIncludes(path string, seen, stack map[string]bool) ([]string, error) {
	path = filepath.Clean(path)
	if stack[path] {
		return nil, fmt.Errorf("include cycle detected: %s", path)
	}
	if seen[path] {
		return nil, nil
	}
	stack[path] = true
	defer delete(stack, path)

	includes, err := readIncludes(path)
	if err != nil {
		return nil, err
	}
	var ordered []string
	dir := filepath.Dir(path)
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(dir, inc)
		}
		sub, err := walkIncludes(inc, seen, stack)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, sub...)
	}
	seen[path] = true
	return append(ordered, path), nil
}

// readIncludes 读取单个文件的 include 列表，容忍缺失，拒绝非字符串项。
func readIncludes(path string) ([]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败 (%s): %w", path, err)
	}
	raw := v.Get("include")
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if strs, ok := raw.([]string); ok {
			items = make([]any, len(strs))
			for i, s := range strs {
				items[i] = s
			}
		} else {
			return nil, fmt.Errorf("include 必须是字符串数组 (%s)", path)
		}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("include 只支持字符串项 (%s)", path)
		}
		if str = strings.TrimSpace(str); str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

// collect 把嵌套设置打平成 "a.b.c" 形式的键集合。
func (k keySet) collect(prefix string, node any) {
	join := func(name string) string {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return ""
		}
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}
	switch val := node.(type) {
	case map[string]any:
		for name, child := range val {
			if next := join(name); next != "" {
				k.collect(next, child)
			}
		}
	case map[any]any:
		for name, child := range val {
			str, ok := name.(string)
			if !ok {
				continue
			}
			if next := join(str); next != "" {
				k.collect(next, child)
			}
		}
	default:
		k.mark(prefix)
	}
}
