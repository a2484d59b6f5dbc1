// Package api is the dashboard's client for the monitor's HTTP API.
//
// Every payload is decoded into an explicit type at this boundary. The
// check endpoint is validated before anything branches on its success flag.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/k3a/html2text"

	"webmon/internal/errors"
)

const (
	defaultUserAgent = "webmon"
	maxErrorText     = 200
)

// ErrMalformedPayload matches any error caused by a response body that does
// not have the expected shape.
var ErrMalformedPayload = errors.Newf("malformed response payload").
	Component("api").
	Category(errors.CategoryPayload).
	Build()

// APIError is a non-2xx answer. Message is the server's "error" field, or
// readable text extracted from the body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the monitor's root, e.g. http://localhost:5000.
	BaseURL string
	// Timeout bounds each request. Zero leaves timing to the transport.
	Timeout time.Duration
	// UserAgent defaults to "webmon".
	UserAgent string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one monitor. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	log       *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Newf("invalid base URL %q", cfg.BaseURL).
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Client{base: base, http: hc, userAgent: ua, log: log}, nil
}

// BaseURL returns the monitor root the client was built with.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request and returns the status code and the full body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, errors.New(err).Component("api").Category(errors.CategoryPayload).Build()
		}
		reader = bytes.NewReader(buf)
	}
	target := c.endpoint(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, errors.New(err).Component("api").Category(errors.CategoryHTTP).Build()
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "url", target, "error", err)
		return 0, nil, errors.Newf("%s %s: %w", method, path, err).
			Component("api").
			Category(errors.CategoryNetwork).
			Context("url", target).
			Build()
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Newf("%s %s: reading body: %w", method, path, err).
			Component("api").
			Category(errors.CategoryNetwork).
			Build()
	}
	c.log.Debug("request done", "method", method, "url", target,
		"status", resp.StatusCode, "bytes", len(data), "elapsed", time.Since(start))
	return resp.StatusCode, data, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}

// errorText extracts a human-readable error from a failed response: the
// "error" field of a JSON object, or the visible text of an HTML page.
func errorText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(trimmed, &payload) == nil {
			return payload.Error
		}
	}
	text := strings.Join(strings.Fields(html2text.HTML2Text(string(trimmed))), " ")
	return ansi.Truncate(text, maxErrorText, "...")
}

func malformed(path string, cause error) error {
	return errors.Newf("%s: %w", path, cause).
		Component("api").
		Category(errors.CategoryPayload).
		Build()
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if !ok(status) {
		return &APIError{StatusCode: status, Message: errorText(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return malformed(path, err)
	}
	return nil
}

// Status fetches GET /api/status.
func (c *Client) Status(ctx context.Context) (*StatusReport, error) {
	const path = "/api/status"
	status, body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &APIError{StatusCode: status, Message: errorText(body)}
	}
	report, err := newStatusReport(body)
	if err != nil {
		return nil, malformed(path, err)
	}
	return report, nil
}

// checkPayload is the wire shape of the check response. Success is a
// pointer so a missing flag can be told apart from false.
type checkPayload struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// checkError returns the "error" field of a JSON object body, or "".
func checkError(body []byte) string {
	var detail struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &detail) != nil {
		return ""
	}
	return detail.Error
}

// Check asks the server to check one website now. A server answer always
// yields a CheckResult; err is non-nil only for transport failures and
// bodies that are not a check payload. Any failure carries the server's
// "error" text when the body has one, whatever the success flag says.
func (c *Client) Check(ctx context.Context, websiteID int64) (CheckResult, error) {
	path := "/api/websites/" + strconv.FormatInt(websiteID, 10) + "/check"
	status, body, err := c.do(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var payload checkPayload
	decodeErr := json.Unmarshal(body, &payload)
	if decodeErr == nil && payload.Success == nil {
		decodeErr = errors.NewStd(`missing boolean "success"`)
	}
	detail := checkError(body)

	switch {
	case !ok(status):
		if decodeErr != nil && detail == "" {
			c.log.Debug("check answered with a non-JSON error page", "status", status, "text", errorText(body))
		}
		return CheckFailed{StatusCode: status, Error: detail}, nil
	case decodeErr == nil && *payload.Success:
		return CheckSucceeded{Message: payload.Message}, nil
	case decodeErr == nil, detail != "":
		return CheckFailed{StatusCode: status, Error: detail}, nil
	default:
		return nil, malformed(path, decodeErr)
	}
}

// Websites lists every monitored website.
func (c *Client) Websites(ctx context.Context) ([]Website, error) {
	var out []Website
	if err := c.getJSON(ctx, "/api/websites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Website fetches one website.
func (c *Client) Website(ctx context.Context, id int64) (Website, error) {
	var out Website
	err := c.getJSON(ctx, "/api/websites/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) sendWebsite(ctx context.Context, method, path string, in WebsiteInput) (Website, error) {
	status, body, err := c.do(ctx, method, path, nil, in)
	if err != nil {
		return Website{}, err
	}
	if !ok(status) {
		return Website{}, &APIError{StatusCode: status, Message: errorText(body)}
	}
	var out Website
	if err := json.Unmarshal(body, &out); err != nil {
		return Website{}, malformed(path, err)
	}
	return out, nil
}

// CreateWebsite adds a website.
func (c *Client) CreateWebsite(ctx context.Context, in WebsiteInput) (Website, error) {
	return c.sendWebsite(ctx, http.MethodPost, "/api/websites", in)
}

// UpdateWebsite changes the fields set in in.
func (c *Client) UpdateWebsite(ctx context.Context, id int64, in WebsiteInput) (Website, error) {
	return c.sendWebsite(ctx, http.MethodPut, "/api/websites/"+strconv.FormatInt(id, 10), in)
}

// DeleteWebsite removes a website.
func (c *Client) DeleteWebsite(ctx context.Context, id int64) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/api/websites/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return err
	}
	if !ok(status) {
		return &APIError{StatusCode: status, Message: errorText(body)}
	}
	return nil
}

// Changes fetches one page of change records.
func (c *Client) Changes(ctx context.Context, q ChangeQuery) (ChangePage, error) {
	query := url.Values{}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		query.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.WebsiteID > 0 {
		query.Set("website_id", strconv.FormatInt(q.WebsiteID, 10))
	}
	var out ChangePage
	err := c.getJSON(ctx, "/api/changes", query, &out)
	return out, err
}

// Export downloads GET /api/export/{kind}, scoped to one website when
// websiteID is positive.
func (c *Client) Export(ctx context.Context, kind string, websiteID int64) ([]byte, error) {
	var query url.Values
	if websiteID > 0 {
		query = url.Values{"website_id": {strconv.FormatInt(websiteID, 10)}}
	}
	status, body, err := c.do(ctx, http.MethodGet, "/api/export/"+url.PathEscape(kind), query, nil)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, &APIError{StatusCode: status, Message: errorText(body)}
	}
	return body, nil
}
