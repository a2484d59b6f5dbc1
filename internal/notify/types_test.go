package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeverityValid(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeveritySuccess, SeverityWarning, SeverityDanger} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Severity("").Valid())
	assert.False(t, Severity("error").Valid())
}

func TestInfoHelperUsesDefaults(t *testing.T) {
	rec := &Recorder{}
	Info(rec, "hello")

	n := rec.Last()
	assert.Equal(t, SeverityInfo, n.Severity)
	assert.Equal(t, DefaultDuration, n.Duration)
	assert.False(t, n.Sticky())
}

func TestSinkFunc(t *testing.T) {
	var got string
	s := SinkFunc(func(m string, _ Severity, _ time.Duration) Handle {
		got = m
		return "h"
	})

	assert.Equal(t, Handle("h"), s.Notify("x", SeverityDanger, Persistent))
	assert.Equal(t, "x", got)
}

func TestRecorderHandlesAreDistinct(t *testing.T) {
	rec := &Recorder{}
	a := rec.Notify("same", SeverityInfo, 0)
	b := rec.Notify("same", SeverityInfo, 0)

	assert.NotEqual(t, a, b)
	assert.Len(t, rec.All(), 2)
	assert.True(t, rec.Last().Sticky())
}
