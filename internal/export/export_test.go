package export

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmon/internal/api"
	"webmon/internal/locale"
	"webmon/internal/metrics"
	"webmon/internal/notify"
)

type stubDownloader struct {
	body      []byte
	err       error
	kind      string
	websiteID int64
}

func (s *stubDownloader) Export(_ context.Context, kind string, websiteID int64) ([]byte, error) {
	s.kind, s.websiteID = kind, websiteID
	return s.body, s.err
}

var fixedNow = func() time.Time {
	// late evening in Shanghai is still the previous day in UTC
	return time.Date(2024, 5, 2, 1, 30, 0, 0, time.FixedZone("CST", 8*3600))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "website_monitor_changes_2024-05-01.csv", Filename(KindChanges, fixedNow()))
	assert.Equal(t, "website_monitor_websites_2024-05-01.csv", Filename(KindWebsites, fixedNow()))
}

func TestExportWritesFileAndNotifies(t *testing.T) {
	dir := t.TempDir()
	dl := &stubDownloader{body: []byte("id,name\n1,Example\n")}
	rec := &notify.Recorder{}
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	e := &Exporter{Downloader: dl, Sink: rec, Locale: locale.MustNew("zh-CN"), Dir: dir, Now: fixedNow, Metrics: m}
	path, err := e.Export(context.Background(), KindWebsites, 4)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "website_monitor_websites_2024-05-01.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Example\n", string(data))
	assert.Equal(t, int64(4), dl.websiteID)

	n := rec.Last()
	assert.Equal(t, "导出成功", n.Message)
	assert.Equal(t, notify.SeveritySuccess, n.Severity)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), `webmon_exports_total{result="success"} 1`)
}

func TestExportFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &api.APIError{StatusCode: 500, Message: "database locked"}, "导出失败: database locked"},
		{"bare status", &api.APIError{StatusCode: 404}, "导出失败: 导出失败"},
		{"transport", errors.New("connection reset"), "导出失败: 导出失败"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &notify.Recorder{}
			e := &Exporter{Downloader: &stubDownloader{err: tt.err}, Sink: rec, Locale: locale.MustNew("zh-CN"), Dir: t.TempDir(), Now: fixedNow}

			_, err := e.Export(context.Background(), KindChanges, 0)
			require.Error(t, err)
			assert.Equal(t, tt.want, rec.Last().Message)
			assert.Equal(t, notify.SeverityDanger, rec.Last().Severity)
		})
	}
}

func TestExportRejectsUnknownKind(t *testing.T) {
	dl := &stubDownloader{}
	rec := &notify.Recorder{}
	e := &Exporter{Downloader: dl, Sink: rec, Dir: t.TempDir()}

	_, err := e.Export(context.Background(), "keywords", 0)
	require.Error(t, err)
	assert.Empty(t, dl.kind, "nothing downloaded")
	assert.Len(t, rec.All(), 1)
}

func TestExportUnwritableDir(t *testing.T) {
	rec := &notify.Recorder{}
	e := &Exporter{
		Downloader: &stubDownloader{body: []byte("x")},
		Sink:       rec,
		Locale:     locale.MustNew("en"),
		Dir:        filepath.Join(t.TempDir(), "missing", "dir"),
		Now:        fixedNow,
	}
	_, err := e.Export(context.Background(), KindChanges, 0)
	require.Error(t, err)
	assert.Equal(t, "Export failed: Export failed", rec.Last().Message)
}
