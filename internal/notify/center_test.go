package notify

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"webmon/internal/clock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var start = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestCenter(t *testing.T, opts Options) (*Center, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(start)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCenter(clk, opts, log, nil), clk
}

func TestSurfaceCreatedLazily(t *testing.T) {
	c, _ := newTestCenter(t, Options{})
	assert.False(t, c.SurfaceCreated())
	assert.Empty(t, c.Snapshot())

	c.Notify("hello", SeverityInfo, DefaultDuration)
	assert.True(t, c.SurfaceCreated())
}

func TestAutoDismissTiming(t *testing.T) {
	for _, d := range []time.Duration{time.Millisecond * 10, 2 * time.Second, DefaultDuration, time.Minute} {
		t.Run(d.String(), func(t *testing.T) {
			c, clk := newTestCenter(t, Options{})
			eps := time.Millisecond

			h := c.Notify("msg", SeveritySuccess, d)
			clk.Advance(d - eps)
			assert.True(t, c.Has(h), "still present just before expiry")

			clk.Advance(2 * eps)
			assert.False(t, c.Has(h), "gone just after expiry")
		})
	}
}

func TestPersistentUntilDismissed(t *testing.T) {
	c, clk := newTestCenter(t, Options{})

	h := c.Notify("offline", SeverityWarning, Persistent)
	clk.Advance(24 * time.Hour)
	require.True(t, c.Has(h))
	assert.Equal(t, 0, clk.Pending())

	assert.True(t, c.Dismiss(h))
	assert.False(t, c.Has(h))
	assert.False(t, c.Dismiss(h), "second dismissal is a no-op")
}

func TestExpiryAfterManualDismissIsNoop(t *testing.T) {
	c, clk := newTestCenter(t, Options{})
	changes := 0
	c.OnChange(func([]Notification) { changes++ })

	h := c.Notify("saved", SeveritySuccess, time.Second)
	require.True(t, c.Dismiss(h))
	changes = 0

	assert.NotPanics(t, func() { clk.Advance(2 * time.Second) })
	// a timer that already fired when the dismissal raced it
	assert.NotPanics(t, func() { c.expire(h) })
	assert.Equal(t, 0, changes)
}

func TestInsertionOrderAndIndependentTimers(t *testing.T) {
	c, clk := newTestCenter(t, Options{})

	a := c.Notify("a", SeverityInfo, 3*time.Second)
	clk.Advance(time.Second)
	b := c.Notify("b", SeverityInfo, time.Second)
	p := c.Notify("c", SeverityDanger, Persistent)

	snap := c.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []Handle{a, b, p}, []Handle{snap[0].ID, snap[1].ID, snap[2].ID})

	clk.Advance(time.Second)
	assert.False(t, c.Has(b))
	assert.True(t, c.Has(a))

	clk.Advance(time.Second)
	assert.False(t, c.Has(a))
	assert.True(t, c.Has(p))
}

func TestDefaultsForBadInput(t *testing.T) {
	c, clk := newTestCenter(t, Options{})

	h := c.Notify("weird", Severity("purple"), -time.Second)
	n := c.Snapshot()[0]
	assert.Equal(t, SeverityInfo, n.Severity)
	assert.Equal(t, DefaultDuration, n.Duration)

	clk.Advance(DefaultDuration)
	assert.False(t, c.Has(h))
}

func TestMaxVisibleDropsOldest(t *testing.T) {
	c, clk := newTestCenter(t, Options{MaxVisible: 2})

	first := c.Notify("1", SeverityInfo, time.Minute)
	c.Notify("2", SeverityInfo, time.Minute)
	c.Notify("3", SeverityInfo, time.Minute)

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "2", snap[0].Message)
	assert.Equal(t, "3", snap[1].Message)
	assert.False(t, c.Has(first))
	assert.Equal(t, 2, clk.Pending(), "evicted timer is stopped")
}

func TestMaxVisibleNeverEvictsPersistent(t *testing.T) {
	c, _ := newTestCenter(t, Options{MaxVisible: 2})

	offline := c.Notify("网络连接已断开", SeverityWarning, Persistent)
	for i := 0; i < 5; i++ {
		c.Notify(fmt.Sprintf("done %d", i), SeveritySuccess, time.Minute)
	}

	assert.True(t, c.Has(offline))
	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "网络连接已断开", snap[0].Message)
	assert.Equal(t, "done 4", snap[1].Message)
}

func TestMaxVisibleWithOnlyPersistentKeepsAll(t *testing.T) {
	c, _ := newTestCenter(t, Options{MaxVisible: 1})
	c.Notify("a", SeverityWarning, Persistent)
	c.Notify("b", SeverityWarning, Persistent)
	assert.Len(t, c.Snapshot(), 2)
}

func TestDefaultOptionsKeepEveryNotification(t *testing.T) {
	c, clk := newTestCenter(t, DefaultOptions())

	offline := c.Notify("网络连接已断开", SeverityWarning, Persistent)
	for i := 0; i < 10; i++ {
		c.Notify(fmt.Sprintf("done %d", i), SeveritySuccess, DefaultDuration)
	}
	first := c.Notify("检查失败: timeout", SeverityDanger, DefaultDuration)
	clk.Advance(time.Second)
	second := c.Notify("检查失败: timeout", SeverityDanger, DefaultDuration)

	assert.Len(t, c.Snapshot(), 13)
	assert.True(t, c.Has(offline))
	assert.True(t, c.Has(first), "identical notifications are not merged")
	assert.True(t, c.Has(second))

	clk.Advance(time.Hour)
	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, offline, snap[0].ID)
}

// brokenClock panics when asked for a timer.
type brokenClock struct{}

func (brokenClock) Now() time.Time { return start }

func (brokenClock) AfterFunc(time.Duration, func()) clock.Timer {
	panic("no timers")
}

func TestPanicWhilePostingReleasesLock(t *testing.T) {
	c := NewCenter(brokenClock{}, Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	assert.NotPanics(t, func() { c.Notify("timed", SeverityInfo, time.Second) })

	done := make(chan struct{})
	go func() {
		c.Notify("sticky", SeverityWarning, Persistent)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked after an earlier panic")
	}

	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "sticky", snap[0].Message)
}

func TestCollapseIdenticalNotifications(t *testing.T) {
	c, _ := newTestCenter(t, Options{CollapseWindow: time.Minute})

	for i := 0; i < 5; i++ {
		c.Notify("网络连接已断开", SeverityWarning, Persistent)
	}
	c.Notify("网络连接已断开", SeverityDanger, Persistent)

	snap := c.Snapshot()
	require.Len(t, snap, 2, "same text with another severity is kept")
	assert.Equal(t, SeverityWarning, snap[0].Severity)
	assert.Equal(t, SeverityDanger, snap[1].Severity)
}

func TestNoCapByDefault(t *testing.T) {
	c, _ := newTestCenter(t, Options{})
	for i := 0; i < 50; i++ {
		c.Notify(fmt.Sprintf("n%d", i), SeverityInfo, Persistent)
	}
	assert.Len(t, c.Snapshot(), 50)
}

func TestDismissNewestAndClear(t *testing.T) {
	c, clk := newTestCenter(t, Options{})
	c.Notify("old", SeverityInfo, Persistent)
	c.Notify("new", SeverityInfo, time.Second)

	require.True(t, c.DismissNewest())
	snap := c.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "old", snap[0].Message)
	assert.Equal(t, 0, clk.Pending())

	c.Clear()
	assert.Empty(t, c.Snapshot())
	assert.False(t, c.DismissNewest())
}

func TestListenerPanicDoesNotReachCaller(t *testing.T) {
	c, _ := newTestCenter(t, Options{})
	c.OnChange(func([]Notification) { panic("renderer broke") })

	var h Handle
	assert.NotPanics(t, func() { h = c.Notify("x", SeverityInfo, Persistent) })
	assert.True(t, c.Has(h))
}

func TestRealClockExpiry(t *testing.T) {
	c := NewCenter(nil, Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	done := make(chan struct{})
	c.OnChange(func(s []Notification) {
		if len(s) == 0 {
			close(done)
		}
	})

	c.Notify("quick", SeverityInfo, 20*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification never expired")
	}
}
