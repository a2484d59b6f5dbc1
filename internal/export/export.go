// Package export downloads CSV exports from the monitor and saves them
// locally.
package export

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"webmon/internal/api"
	"webmon/internal/errors"
	"webmon/internal/locale"
	"webmon/internal/metrics"
	"webmon/internal/notify"
)

// Export kinds served by the monitor.
const (
	KindWebsites = "websites"
	KindChanges  = "changes"
)

// Downloader fetches an export body. *api.Client implements it.
type Downloader interface {
	Export(ctx context.Context, kind string, websiteID int64) ([]byte, error)
}

// Filename is website_monitor_{kind}_{YYYY-MM-DD}.csv, dated in UTC.
func Filename(kind string, now time.Time) string {
	return "website_monitor_" + kind + "_" + now.UTC().Format(time.DateOnly) + ".csv"
}

// Exporter saves exports into Dir and reports the outcome through Sink.
type Exporter struct {
	Downloader Downloader
	Sink       notify.Sink
	Locale     *locale.Locale
	// Dir defaults to the working directory.
	Dir     string
	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Export downloads kind, scoped to websiteID when positive, writes it to a
// file and returns the file's path. The outcome is also posted as a
// notification; the export is never retried.
func (e *Exporter) Export(ctx context.Context, kind string, websiteID int64) (string, error) {
	path, err := e.save(ctx, kind, websiteID)
	e.Metrics.ExportCompleted(err == nil)

	loc := e.Locale
	if loc == nil {
		loc = locale.MustNew(locale.Default)
	}
	if err != nil {
		e.logger().Warn("export failed", "kind", kind, "website_id", websiteID, "error", err)
		e.Sink.Notify(loc.T(locale.ExportFailedAt, e.reason(loc, err)), notify.SeverityDanger, notify.DefaultDuration)
		return "", err
	}
	e.logger().Info("export saved", "kind", kind, "path", path)
	e.Sink.Notify(loc.T(locale.ExportDone), notify.SeveritySuccess, notify.DefaultDuration)
	return path, nil
}

func (e *Exporter) save(ctx context.Context, kind string, websiteID int64) (string, error) {
	if kind != KindWebsites && kind != KindChanges {
		return "", errors.ValidationError("export", "unknown export kind "+kind)
	}
	data, err := e.Downloader.Export(ctx, kind, websiteID)
	if err != nil {
		return "", err
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	path := filepath.Join(e.Dir, Filename(kind, now()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return path, nil
}

// reason is the server's message when it sent one, otherwise the generic
// failure text.
func (e *Exporter) reason(loc *locale.Locale, err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return loc.T(locale.ExportFailed)
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
