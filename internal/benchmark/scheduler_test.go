package benchmark

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"vigil/internal/collab"
	"vigil/internal/events"
	"vigil/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	bars    []market.Candle
	err     error
	blockCh chan struct{} // 非空时阻塞直至关闭，用来制造在途运行
}

func (s *stubSource) BenchmarkBars(ctx context.Context) ([]market.Candle, error) {
	if s.blockCh != nil {
		<-s.blockCh
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.bars, nil
}

type stubNotifier struct {
	sent []string
}

func (n *stubNotifier) SendText(text string) error {
	n.sent = append(n.sent, text)
	return nil
}

func newTestScheduler(t *testing.T, source BarSource, bus *events.Bus, notifier Notifier) *Scheduler {
	t.Helper()
	s, err := NewScheduler(SchedulerConfig{
		Engine:   NewEngine(0.001, nil, nil),
		Source:   source,
		Strategy: &stubStrategy{action: collab.ActionHold},
		Notional: 10000,
		Interval: time.Hour,
		Bus:      bus,
		Notifier: notifier,
	})
	require.NoError(t, err)
	return s
}

func TestSchedulerRunOncePublishesAndRecords(t *testing.T) {
	bus := events.NewBus()
	var completed []events.Event
	bus.Subscribe(events.TypeBenchmarkCompleted, func(ev events.Event) {
		completed = append(completed, ev)
	})
	notifier := &stubNotifier{}
	s := newTestScheduler(t, &stubSource{bars: flatBars(60, 100)}, bus, notifier)

	res, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 1, s.HistoryLen())

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, res.RunID, latest.RunID)

	require.Len(t, completed, 1)
	payload, ok := completed[0].Payload.(Result)
	require.True(t, ok)
	assert.Equal(t, res.RunID, payload.RunID)

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], res.RunID)
}

func TestSchedulerRunOnceSourceFailure(t *testing.T) {
	bus := events.NewBus()
	var errEvents []events.Event
	bus.Subscribe(events.TypeError, func(ev events.Event) {
		errEvents = append(errEvents, ev)
	})
	src := &stubSource{err: fmt.Errorf("行情源不可用")}
	s := newTestScheduler(t, src, bus, nil)

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, s.HistoryLen())
	require.Len(t, errEvents, 1)

	// 失败不影响后续运行
	src.err = nil
	src.bars = flatBars(60, 100)
	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.HistoryLen())
}

func TestSchedulerHistoryEviction(t *testing.T) {
	s := newTestScheduler(t, &stubSource{bars: flatBars(60, 100)}, events.NewBus(), nil)
	for i := 0; i < HistoryCap+1; i++ {
		s.mu.Lock()
		s.appendLocked(Result{RunID: strconv.Itoa(i)})
		s.mu.Unlock()
	}

	assert.Equal(t, HistoryCap, s.HistoryLen())
	all := s.History(0)
	// 最旧的 "0" 被淘汰，最新在末尾
	assert.Equal(t, "1", all[0].RunID)
	assert.Equal(t, strconv.Itoa(HistoryCap), all[len(all)-1].RunID)

	recent := s.History(5)
	require.Len(t, recent, 5)
	assert.Equal(t, strconv.Itoa(HistoryCap-4), recent[0].RunID)
}

func TestSchedulerRejectsConcurrentRun(t *testing.T) {
	blockCh := make(chan struct{})
	s := newTestScheduler(t, &stubSource{bars: flatBars(60, 100), blockCh: blockCh}, events.NewBus(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()

	// 等第一次运行进入在途状态
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.inFlight
	}, time.Second, 5*time.Millisecond)

	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrRunInFlight)

	close(blockCh)
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.HistoryLen())
}

func TestSchedulerStopIdempotentAndRejectsRuns(t *testing.T) {
	s := newTestScheduler(t, &stubSource{bars: flatBars(60, 100)}, events.NewBus(), nil)
	s.Stop()
	s.Stop() // 二次 Stop 不应 panic

	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestSchedulerDiscardsResultAfterStop(t *testing.T) {
	bus := events.NewBus()
	var completed int
	bus.Subscribe(events.TypeBenchmarkCompleted, func(events.Event) { completed++ })
	blockCh := make(chan struct{})
	s := newTestScheduler(t, &stubSource{bars: flatBars(60, 100), blockCh: blockCh}, bus, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.inFlight
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	close(blockCh)
	require.NoError(t, <-done)

	// 在途结果被丢弃，不入历史也不发事件
	assert.Equal(t, 0, s.HistoryLen())
	assert.Equal(t, 0, completed)
}

func TestSchedulerStartTicker(t *testing.T) {
	bus := events.NewBus()
	s, err := NewScheduler(SchedulerConfig{
		Engine:   NewEngine(0.001, nil, nil),
		Source:   &stubSource{bars: flatBars(60, 100)},
		Strategy: &stubStrategy{action: collab.ActionHold},
		Interval: 20 * time.Millisecond,
		Bus:      bus,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool {
		return s.HistoryLen() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
