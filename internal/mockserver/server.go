// Package mockserver is an in-memory implementation of the monitor's HTTP
// API. It backs the webmon-mock command and the end-to-end tests.
package mockserver

import (
	"encoding/csv"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"webmon/internal/api"
)

// CheckFunc decides the outcome of a manual check. A non-nil error is
// answered with HTTP 500 and {"success": false, "error": err}.
type CheckFunc func(w api.Website) (bool, error)

// Options configures a Server.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	Check  CheckFunc
}

// Server holds the fixtures and serves them.
type Server struct {
	mu       sync.Mutex
	websites map[int64]*api.Website
	changes  []api.ChangeRecord
	nextID   int64
	nextKW   int64
	nextCR   int64
	check    CheckFunc

	now    func() time.Time
	log    *slog.Logger
	engine *gin.Engine
}

// New builds an empty Server.
func New(opts Options) *Server {
	s := &Server{
		websites: make(map[int64]*api.Website),
		check:    opts.Check,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.check == nil {
		s.check = func(api.Website) (bool, error) { return true, nil }
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/api/status", s.handleStatus)
	r.GET("/api/websites", s.handleListWebsites)
	r.POST("/api/websites", s.handleCreateWebsite)
	r.GET("/api/websites/:id", s.handleGetWebsite)
	r.PUT("/api/websites/:id", s.handleUpdateWebsite)
	r.DELETE("/api/websites/:id", s.handleDeleteWebsite)
	r.POST("/api/websites/:id/check", s.handleCheckWebsite)
	r.GET("/api/changes", s.handleListChanges)
	r.GET("/api/export/:type", s.handleExport)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetCheck replaces the check outcome hook.
func (s *Server) SetCheck(f CheckFunc) {
	s.mu.Lock()
	s.check = f
	s.mu.Unlock()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

// AddWebsite stores w with a fresh ID and returns the stored copy.
func (s *Server) AddWebsite(w api.Website, keywords ...string) api.Website {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(w, keywords)
}

func (s *Server) addLocked(w api.Website, keywords []string) api.Website {
	s.nextID++
	w.ID = s.nextID
	if w.CreatedAt.IsZero() {
		w.CreatedAt = api.Time{Time: s.now().UTC()}
	}
	w.Keywords = s.keywordsLocked(keywords)
	stored := w
	s.websites[w.ID] = &stored
	return stored
}

func (s *Server) keywordsLocked(texts []string) []api.Keyword {
	out := []api.Keyword{}
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		s.nextKW++
		out = append(out, api.Keyword{
			ID:        s.nextKW,
			Keyword:   text,
			IsActive:  true,
			CreatedAt: api.Time{Time: s.now().UTC()},
		})
	}
	return out
}

// AddChange records a change for an existing website.
func (s *Server) AddChange(cr api.ChangeRecord) api.ChangeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCR++
	cr.ID = s.nextCR
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = api.Time{Time: s.now().UTC()}
	}
	if cr.ChangeType == "" {
		cr.ChangeType = "content_changed"
	}
	s.changes = append(s.changes, cr)
	return cr
}

// Seed loads a small demo data set.
func (s *Server) Seed() {
	now := s.now().UTC()
	a := s.AddWebsite(api.Website{
		Name: "示例网站", URL: "https://example.com", CheckInterval: 300, IsActive: true,
		LastChecked: api.Time{Time: now.Add(-4 * time.Minute)},
	}, "价格", "促销")
	b := s.AddWebsite(api.Website{
		Name: "Go Blog", URL: "https://go.dev/blog", CheckInterval: 3600, IsActive: true,
		LastChecked: api.Time{Time: now.Add(-3 * time.Hour)},
	}, "release")
	s.AddWebsite(api.Website{
		Name: "Archived", URL: "http://archive.example.org", CheckInterval: 86400, IsActive: false,
	})
	s.AddChange(api.ChangeRecord{WebsiteID: a.ID, ChangeType: "keyword_matched", MatchedKeywords: `["促销"]`,
		DiffContent: "+ 限时促销", NotificationSent: true, CreatedAt: api.Time{Time: now.Add(-2 * time.Hour)}})
	s.AddChange(api.ChangeRecord{WebsiteID: b.ID, DiffContent: "+ Go 1.24 is released",
		CreatedAt: api.Time{Time: now.Add(-10 * 24 * time.Hour)}})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := 0
	for _, w := range s.websites {
		if w.IsActive {
			active++
		}
	}
	since := s.now().Add(-24 * time.Hour)
	recent := 0
	for _, cr := range s.changes {
		if !cr.CreatedAt.Before(since) {
			recent++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total_websites":  len(s.websites),
		"active_websites": active,
		"recent_changes":  recent,
		"status":          "running",
	})
}

func (s *Server) sortedLocked() []api.Website {
	out := make([]api.Website, 0, len(s.websites))
	for _, w := range s.websites {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListWebsites(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.sortedLocked())
}

// websiteBody distinguishes absent fields from zero values for updates.
type websiteBody struct {
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	CheckInterval *int      `json:"check_interval"`
	IsActive      *bool     `json:"is_active"`
	Keywords      *[]string `json:"keywords"`
}

func (s *Server) urlTakenLocked(url string, except int64) bool {
	for id, w := range s.websites {
		if id != except && w.URL == url {
			return true
		}
	}
	return false
}

func (s *Server) handleCreateWebsite(c *gin.Context) {
	var body websiteBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" || body.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "网站名称和URL不能为空"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urlTakenLocked(body.URL, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "该URL已存在"})
		return
	}
	w := api.Website{Name: body.Name, URL: body.URL, CheckInterval: 300, IsActive: true}
	if body.CheckInterval != nil {
		w.CheckInterval = *body.CheckInterval
	}
	if body.IsActive != nil {
		w.IsActive = *body.IsActive
	}
	var keywords []string
	if body.Keywords != nil {
		keywords = *body.Keywords
	}
	c.JSON(http.StatusCreated, s.addLocked(w, keywords))
}

// lookupLocked resolves the :id parameter, answering 404 itself when the
// website does not exist.
func (s *Server) lookupLocked(c *gin.Context) (*api.Website, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return nil, false
	}
	w, ok := s.websites[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return nil, false
	}
	return w, true
}

func (s *Server) handleGetWebsite(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.lookupLocked(c); ok {
		c.JSON(http.StatusOK, w)
	}
}

func (s *Server) handleUpdateWebsite(c *gin.Context) {
	var body websiteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.lookupLocked(c)
	if !ok {
		return
	}
	if body.URL != "" && s.urlTakenLocked(body.URL, w.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "该URL已存在"})
		return
	}
	if body.Name != "" {
		w.Name = body.Name
	}
	if body.URL != "" {
		w.URL = body.URL
	}
	if body.CheckInterval != nil {
		w.CheckInterval = *body.CheckInterval
	}
	if body.IsActive != nil {
		w.IsActive = *body.IsActive
	}
	if body.Keywords != nil {
		w.Keywords = s.keywordsLocked(*body.Keywords)
	}
	c.JSON(http.StatusOK, w)
}

func (s *Server) handleDeleteWebsite(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.lookupLocked(c)
	if !ok {
		return
	}
	delete(s.websites, w.ID)
	kept := s.changes[:0]
	for _, cr := range s.changes {
		if cr.WebsiteID != w.ID {
			kept = append(kept, cr)
		}
	}
	s.changes = kept
	c.JSON(http.StatusOK, gin.H{"message": "网站删除成功"})
}

func (s *Server) handleCheckWebsite(c *gin.Context) {
	s.mu.Lock()
	w, ok := s.lookupLocked(c)
	if !ok {
		s.mu.Unlock()
		return
	}
	snapshot, check := *w, s.check
	s.mu.Unlock()

	result, err := check(snapshot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	s.mu.Lock()
	if w, ok := s.websites[snapshot.ID]; ok {
		w.LastChecked = api.Time{Time: s.now().UTC()}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": result, "message": "检查完成"})
}

func (s *Server) filteredChangesLocked(websiteID int64) []api.ChangeRecord {
	out := make([]api.ChangeRecord, 0, len(s.changes))
	for _, cr := range s.changes {
		if websiteID == 0 || cr.WebsiteID == websiteID {
			out = append(out, cr)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	return out
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}

func (s *Server) handleListChanges(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	s.mu.Lock()
	all := s.filteredChangesLocked(int64(queryInt(c, "website_id", 0)))
	s.mu.Unlock()

	start := min((page-1)*perPage, len(all))
	end := min(start+perPage, len(all))
	c.JSON(http.StatusOK, api.ChangePage{
		Changes:     all[start:end],
		Total:       len(all),
		Pages:       int(math.Ceil(float64(len(all)) / float64(perPage))),
		CurrentPage: page,
	})
}

func formatTime(t api.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func (s *Server) handleExport(c *gin.Context) {
	kind := c.Param("type")
	websiteID := int64(queryInt(c, "website_id", 0))

	var rows [][]string
	s.mu.Lock()
	switch kind {
	case "websites":
		rows = append(rows, []string{"ID", "名称", "URL", "检查间隔(秒)", "状态", "最后检查", "关键词", "创建时间"})
		for _, w := range s.sortedLocked() {
			if websiteID != 0 && w.ID != websiteID {
				continue
			}
			state := "停用"
			if w.IsActive {
				state = "启用"
			}
			rows = append(rows, []string{
				strconv.FormatInt(w.ID, 10), w.Name, w.URL, strconv.Itoa(w.CheckInterval), state,
				formatTime(w.LastChecked), strings.Join(w.KeywordTexts(), ", "), formatTime(w.CreatedAt),
			})
		}
	case "changes":
		rows = append(rows, []string{"ID", "网站", "变化类型", "匹配关键词", "已通知", "时间"})
		for _, cr := range s.filteredChangesLocked(websiteID) {
			name := ""
			if w, ok := s.websites[cr.WebsiteID]; ok {
				name = w.Name
			}
			rows = append(rows, []string{
				strconv.FormatInt(cr.ID, 10), name, cr.ChangeType, cr.MatchedKeywords,
				strconv.FormatBool(cr.NotificationSent), formatTime(cr.CreatedAt),
			})
		}
	}
	s.mu.Unlock()

	if rows == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "不支持的导出类型"})
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+kind+`.csv"`)
	c.Status(http.StatusOK)
	out := csv.NewWriter(c.Writer)
	if err := out.WriteAll(rows); err != nil {
		s.log.Warn("export write failed", "error", err)
	}
}
