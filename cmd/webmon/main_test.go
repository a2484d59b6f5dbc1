package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmon/internal/api"
	"webmon/internal/mockserver"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func startMonitor(t *testing.T) (*mockserver.Server, string) {
	t.Helper()
	s := mockserver.New(mockserver.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	s.Seed()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webmon.yaml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reloaddelay: 1.5s")

	_, err = run(t, "config", "init", path)
	assert.Error(t, err, "existing file needs --force")
	_, err = run(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestCheckCommandReportsEachOutcome(t *testing.T) {
	s, url := startMonitor(t)
	s.SetCheck(func(w api.Website) (bool, error) {
		if w.ID == 2 {
			return false, errors.New("timeout")
		}
		return true, nil
	})

	out, err := run(t, "check", "--server", url, "--log-level", "error", "1", "2")
	require.Error(t, err)
	assert.Equal(t, "1 of 2 checks failed", err.Error())
	assert.Contains(t, out, "网站检查完成！")
	assert.Contains(t, out, "检查失败: timeout")
}

func TestCheckCommandRejectsBadIDs(t *testing.T) {
	_, err := run(t, "check", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid website id "abc"`)
}

func TestExportCommandWritesFile(t *testing.T) {
	_, url := startMonitor(t)
	dir := t.TempDir()

	out, err := run(t, "export", "websites", "--server", url, "--dir", dir, "--log-level", "error")
	require.NoError(t, err)

	var path string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasSuffix(line, ".csv") {
			path = line
		}
	}
	require.NotEmpty(t, path, out)
	assert.Equal(t, dir, filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "示例网站")
}

func TestInvalidConfigIsReported(t *testing.T) {
	t.Setenv("WEBMON_POLL_INTERVAL", "-1s")
	_, err := run(t, "check", "1")
	require.Error(t, err)
}
