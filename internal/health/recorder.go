package health

import (
	"sync"
	"time"
)

// Recorder 累计请求计数，供错误率与平均响应时间计算。只增不减。
type Recorder struct {
	mu            sync.Mutex
	totalRequests int64
	totalErrors   int64
	totalResponse time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordRequest 记录一次请求：响应时间无条件累加，hasError 时错误数加一。
func (r *Recorder) RecordRequest(responseTime time.Duration, hasError bool) {
	r.mu.Lock()
	r.totalRequests++
	r.totalResponse += responseTime
	if hasError {
		r.totalErrors++
	}
	r.mu.Unlock()
}

// ErrorRate 返回累计错误数 ÷ 累计请求数，无请求时为 0。
func (r *Recorder) ErrorRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.totalRequests == 0 {
		return 0
	}
	return float64(r.totalErrors) / float64(r.totalRequests)
}

// AvgResponseTime 返回平均响应时间，无请求时为 0。
func (r *Recorder) AvgResponseTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.totalRequests == 0 {
		return 0
	}
	return r.totalResponse / time.Duration(r.totalRequests)
}

// Counters 返回 (请求数, 错误数)。
func (r *Recorder) Counters() (requests, errors int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalRequests, r.totalErrors
}
