package main

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"

	"webmon/internal/notify"
)

var severityColors = map[notify.Severity]*color.Color{
	notify.SeveritySuccess: color.New(color.FgGreen, color.Bold),
	notify.SeverityInfo:    color.New(color.FgCyan),
	notify.SeverityWarning: color.New(color.FgYellow, color.Bold),
	notify.SeverityDanger:  color.New(color.FgRed, color.Bold),
}

// consoleSink prints notifications as colored lines. Durations have no
// meaning on a console and are ignored.
func consoleSink(out io.Writer) notify.Sink {
	var (
		mu  sync.Mutex
		seq atomic.Int64
	)
	return notify.SinkFunc(func(message string, severity notify.Severity, _ time.Duration) notify.Handle {
		c, ok := severityColors[severity]
		if !ok {
			c = severityColors[notify.SeverityInfo]
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, "%s %s %s\n",
			time.Now().Format("15:04:05"),
			c.Sprintf("%-7s", severity),
			message)
		return notify.Handle(strconv.FormatInt(seq.Add(1), 10))
	})
}
