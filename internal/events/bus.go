package events

import (
	"sync"
	"time"

	"vigil/internal/collab"
)

// Type 是对外事件名，属于边界契约，不可改名。
type Type string

const (
	TypeSystemInitialized    Type = "SYSTEM_INITIALIZED"
	TypePerformanceEvaluated Type = "PERFORMANCE_EVALUATED"
	TypeBenchmarkCompleted   Type = "BENCHMARK_COMPLETED"
	TypeError                Type = "ERROR"
	TypeWarning              Type = "WARNING"
)

// Event 是总线上的一条消息。Payload 的具体类型由 Type 决定。
type Event struct {
	Type    Type      `json:"type"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// ErrorPayload 对应 TypeError。
type ErrorPayload struct {
	Component string `json:"component,omitempty"`
	Context   string `json:"context,omitempty"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

// WarningPayload 对应 TypeWarning。
type WarningPayload struct {
	Kind     string                    `json:"type"`
	Warnings []string                  `json:"warnings"`
	Metrics  collab.PerformanceMetrics `json:"metrics"`
}

// Handler 接收事件回调。回调在发布方 goroutine 内同步执行，不可阻塞。
type Handler func(Event)

// Bus 是显式类型化的发布/订阅通道。
type Bus struct {
	mu       sync.RWMutex
	handlers map[Type][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Type][]Handler)}
}

// Subscribe 订阅指定事件类型。
func (b *Bus) Subscribe(t Type, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], h)
	b.mu.Unlock()
}

// SubscribeAll 订阅全部事件。
func (b *Bus) SubscribeAll(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.all = append(b.all, h)
	b.mu.Unlock()
}

// Publish 同步派发事件到所有订阅者。
func (b *Bus) Publish(t Type, payload any) {
	evt := Event{Type: t, Payload: payload, At: time.Now()}
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[t]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(evt)
	}
}

// PublishError 是 TypeError 的便捷入口。
func (b *Bus) PublishError(component, context string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b.Publish(TypeError, ErrorPayload{
		Component: component,
		Context:   context,
		Err:       err,
		Message:   msg,
	})
}
