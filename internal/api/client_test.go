package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "webmon/internal/errors"
)

const testBase = "http://monitor.test"

func setupHTTPMock(t *testing.T) *Client {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	c, err := New(Config{BaseURL: testBase + "/"})
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:5000", "://nope"} {
		_, err := New(Config{BaseURL: raw})
		require.Error(t, err, raw)
		assert.True(t, werrors.IsCategory(err, werrors.CategoryConfiguration))
	}
}

func TestStatusAcceptsAnyJSON(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/status",
		httpmock.NewStringResponder(http.StatusOK,
			`{"total_websites": 4, "active_websites": 3, "recent_changes": 7, "status": "running"}`))

	report, err := c.Status(context.Background())
	require.NoError(t, err)

	total, ok := report.TotalWebsites()
	assert.True(t, ok)
	assert.Equal(t, int64(4), total)
	active, _ := report.ActiveWebsites()
	assert.Equal(t, int64(3), active)
	changes, _ := report.RecentChanges()
	assert.Equal(t, int64(7), changes)
	assert.Equal(t, "running", report.State())

	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/status",
		httpmock.NewStringResponder(http.StatusOK, `[1, 2, 3]`))
	report, err = c.Status(context.Background())
	require.NoError(t, err)
	_, ok = report.TotalWebsites()
	assert.False(t, ok)
	assert.Empty(t, report.State())
	assert.Equal(t, "[1, 2, 3]", report.String())
}

func TestStatusErrors(t *testing.T) {
	c := setupHTTPMock(t)

	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/status",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `<html><body><h1>Service Unavailable</h1></body></html>`))
	_, err := c.Status(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Service Unavailable")

	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/status",
		httpmock.NewStringResponder(http.StatusOK, `not json`))
	_, err = c.Status(context.Background())
	assert.ErrorIs(t, err, ErrMalformedPayload)

	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/status",
		httpmock.NewErrorResponder(errors.New("connection refused")))
	_, err = c.Status(context.Background())
	require.Error(t, err)
	assert.True(t, werrors.IsCategory(err, werrors.CategoryNetwork))
}

func TestCheckRequestShape(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/websites/42/check",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			if req.Body != nil {
				buf := make([]byte, 1)
				n, _ := req.Body.Read(buf)
				assert.Zero(t, n, "body must be empty")
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"success": true, "message": "检查完成"}`), nil
		})

	res, err := c.Check(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, CheckSucceeded{Message: "检查完成"}, res)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestCheckOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    CheckResult
		wantErr bool
	}{
		{"success", 200, `{"success": true}`, CheckSucceeded{}, false},
		{"flag false", 200, `{"success": false, "error": "timeout"}`, CheckFailed{StatusCode: 200, Error: "timeout"}, false},
		{"server error with detail", 500, `{"success": false, "error": "DNS lookup failed"}`, CheckFailed{StatusCode: 500, Error: "DNS lookup failed"}, false},
		{"success flag on error status", 404, `{"success": true}`, CheckFailed{StatusCode: 404}, false},
		{"html error page", 502, `<html><title>Bad Gateway</title></html>`, CheckFailed{StatusCode: 502}, false},
		{"error status without flag", 404, `{"error": "Not Found"}`, CheckFailed{StatusCode: 404, Error: "Not Found"}, false},
		{"ok status with error but no flag", 200, `{"error": "timeout"}`, CheckFailed{StatusCode: 200, Error: "timeout"}, false},
		{"flag wrong type with error", 200, `{"success": "no", "error": "timeout"}`, CheckFailed{StatusCode: 200, Error: "timeout"}, false},
		{"missing flag", 200, `{"message": "?"}`, nil, true},
		{"flag wrong type", 200, `{"success": "yes"}`, nil, true},
		{"garbage", 200, `<<<`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupHTTPMock(t)
			httpmock.RegisterResponder(http.MethodPost, testBase+"/api/websites/1/check",
				httpmock.NewStringResponder(tt.status, tt.body))

			res, err := c.Check(context.Background(), 1)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedPayload)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestCheckTransportError(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/websites/1/check",
		httpmock.NewErrorResponder(errors.New("network is unreachable")))

	res, err := c.Check(context.Background(), 1)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, werrors.IsCategory(err, werrors.CategoryNetwork))
}

func TestWebsitesDecoding(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/websites",
		httpmock.NewStringResponder(http.StatusOK, `[
			{"id": 1, "name": "Example", "url": "https://example.com", "check_interval": 300,
			 "is_active": true, "last_checked": "2024-05-01T08:30:00.123456",
			 "created_at": "2024-04-01T00:00:00",
			 "keywords": [{"id": 9, "keyword": "sale", "is_active": true, "created_at": "2024-04-01T00:00:00"}]},
			{"id": 2, "name": "Never", "url": "http://never.test", "check_interval": 60,
			 "is_active": false, "last_checked": null, "created_at": "2024-04-02T00:00:00+08:00", "keywords": []}
		]`))

	sites, err := c.Websites(context.Background())
	require.NoError(t, err)
	require.Len(t, sites, 2)

	assert.Equal(t, "Example", sites[0].Name)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 30, 0, 123456000, time.UTC), sites[0].LastChecked.Time)
	assert.Equal(t, []string{"sale"}, sites[0].KeywordTexts())
	assert.True(t, sites[1].LastChecked.IsZero())
	assert.Equal(t, time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC), sites[1].CreatedAt.UTC())
}

func TestCreateWebsiteValidationError(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/websites",
		httpmock.NewStringResponder(http.StatusBadRequest, `{"error": "网站名称和URL不能为空"}`))

	_, err := c.CreateWebsite(context.Background(), WebsiteInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "网站名称和URL不能为空", apiErr.Message)
	assert.Equal(t, "server returned 400: 网站名称和URL不能为空", apiErr.Error())
}

func TestUpdateAndDeleteWebsite(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPut, testBase+"/api/websites/3",
		httpmock.NewStringResponder(http.StatusOK, `{"id": 3, "name": "Renamed", "url": "https://r.test", "created_at": "2024-01-01T00:00:00"}`))
	httpmock.RegisterResponder(http.MethodDelete, testBase+"/api/websites/3",
		httpmock.NewStringResponder(http.StatusOK, `{"message": "网站删除成功"}`))
	httpmock.RegisterResponder(http.MethodDelete, testBase+"/api/websites/4",
		httpmock.NewStringResponder(http.StatusNotFound, ``))

	w, err := c.UpdateWebsite(context.Background(), 3, WebsiteInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", w.Name)

	require.NoError(t, c.DeleteWebsite(context.Background(), 3))
	err = c.DeleteWebsite(context.Background(), 4)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "server returned 404", apiErr.Error())
}

func TestChangesQuery(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponderWithQuery(http.MethodGet, testBase+"/api/changes",
		"page=2&per_page=5&website_id=7",
		httpmock.NewStringResponder(http.StatusOK,
			`{"changes": [{"id": 1, "website_id": 7, "change_type": "content", "created_at": "2024-05-01T00:00:00"}],
			  "total": 6, "pages": 2, "current_page": 2}`))

	page, err := c.Changes(context.Background(), ChangeQuery{Page: 2, PerPage: 5, WebsiteID: 7})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	require.Len(t, page.Changes, 1)
	assert.Equal(t, "content", page.Changes[0].ChangeType)
}

func TestExportScopes(t *testing.T) {
	c := setupHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/export/changes",
		func(req *http.Request) (*http.Response, error) {
			return httpmock.NewStringResponse(http.StatusOK, "scope="+req.URL.Query().Get("website_id")), nil
		})

	all, err := c.Export(context.Background(), "changes", 0)
	require.NoError(t, err)
	assert.Equal(t, "scope=", string(all))

	one, err := c.Export(context.Background(), "changes", 12)
	require.NoError(t, err)
	assert.Equal(t, "scope=12", string(one))
}

func TestErrorTextTruncatesHTML(t *testing.T) {
	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	text := errorText([]byte(long))

	assert.LessOrEqual(t, ansi.StringWidth(text), maxErrorText)
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.Equal(t, "", errorText([]byte("  ")))
	assert.Equal(t, "", errorText([]byte(`{"message": "no error field"}`)))
}

func TestErrorTextKeepsMultibyteRunesWhole(t *testing.T) {
	page := "<html><body><h1>" + strings.Repeat("服务暂时不可用", 40) + "</h1></body></html>"
	text := errorText([]byte(page))

	assert.True(t, utf8.ValidString(text), "truncated text must stay valid UTF-8")
	assert.LessOrEqual(t, ansi.StringWidth(text), maxErrorText)
	assert.True(t, strings.HasPrefix(text, "服务暂时不可用"))
	assert.True(t, strings.HasSuffix(text, "..."))
}
