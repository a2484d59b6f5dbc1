package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"webmon/internal/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	calls atomic.Int32
	fail  atomic.Bool
}

func (f *fakeSource) Status(context.Context) (*api.StatusReport, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return &api.StatusReport{}, nil
}

type recordingObserver struct {
	mu   sync.Mutex
	seen int
}

func (o *recordingObserver) StatusObserved(*api.StatusReport) {
	o.mu.Lock()
	o.seen++
	o.mu.Unlock()
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.seen
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaults(t *testing.T) {
	p, err := New(Config{}, &fakeSource{}, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, p.Interval())
	assert.True(t, p.Active())

	_, err = New(Config{Interval: -time.Second}, &fakeSource{}, nil, nil, nil)
	assert.Error(t, err)
	_, err = New(Config{}, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestPollOnce_Success(t *testing.T) {
	src := &fakeSource{}
	obs := &recordingObserver{}
	p, err := New(Config{}, src, obs, quietLogger(), nil)
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	require.NoError(t, res.Err)
	assert.NotNil(t, res.Report)
	assert.Equal(t, 1, obs.count())
}

func TestPollOnce_FailureIsNotObserved(t *testing.T) {
	src := &fakeSource{}
	src.fail.Store(true)
	obs := &recordingObserver{}
	p, err := New(Config{}, src, obs, quietLogger(), nil)
	require.NoError(t, err)

	res := p.PollOnce(context.Background())
	assert.Error(t, res.Err)
	assert.Equal(t, 0, obs.count())
}

func TestPollOnce_ObserverPanicContained(t *testing.T) {
	p, err := New(Config{}, &fakeSource{}, ObserverFunc(func(*api.StatusReport) { panic("boom") }), quietLogger(), nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() { p.PollOnce(context.Background()) })
}

func TestRun_KeepsTickingAfterFailures(t *testing.T) {
	src := &fakeSource{}
	src.fail.Store(true)
	p, err := New(Config{Interval: 5 * time.Millisecond}, src, nil, quietLogger(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return src.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestRun_OffLandingViewDoesNothing(t *testing.T) {
	src := &fakeSource{}
	p, err := New(Config{
		Interval:      time.Millisecond,
		OnLandingView: func() bool { return false },
	}, src, nil, quietLogger(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Run(ctx)

	assert.Zero(t, src.calls.Load())
	assert.NoError(t, ctx.Err(), "Run returned without waiting")
}
