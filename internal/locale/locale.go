// Package locale holds the dashboard's message catalog and date layouts.
//
// Message keys are the English texts; the Simplified Chinese translations
// match the wording of the monitor's web UI.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	JustNow    = "just now"
	MinutesAgo = "%d minutes ago"
	HoursAgo   = "%d hours ago"
	DaysAgo    = "%d days ago"

	CheckNow      = "Check now"
	Checking      = "Checking..."
	CheckDone     = "Website check complete!"
	CheckFailed   = "Check failed"
	CheckFailedAt = "Check failed: %s"

	NetworkOnline  = "Network connection restored"
	NetworkOffline = "Network connection lost"

	Copied     = "Copied to clipboard"
	CopyFailed = "Copy failed"

	ExportDone     = "Export succeeded"
	ExportFailed   = "Export failed"
	ExportFailedAt = "Export failed: %s"

	PageError     = "Something went wrong, please reload and try again"
	ConfirmAction = "Are you sure you want to do this?"

	NameURLRequired = "Website name and URL are required"
	InvalidURL      = "URL must start with http:// or https://"
	InvalidInterval = "Check interval must be at least %d seconds"
	WebsiteSaved    = "Website saved"
	WebsiteDeleted  = "Website deleted"
	RequestFailedAt = "Request failed: %s"
	NothingSelected = "No websites selected"
)

var zhHans = map[string]string{
	JustNow:    "刚刚",
	MinutesAgo: "%d分钟前",
	HoursAgo:   "%d小时前",
	DaysAgo:    "%d天前",

	CheckNow:      "立即检查",
	Checking:      "检查中...",
	CheckDone:     "网站检查完成！",
	CheckFailed:   "检查失败",
	CheckFailedAt: "检查失败: %s",

	NetworkOnline:  "网络连接已恢复",
	NetworkOffline: "网络连接已断开",

	Copied:     "已复制到剪贴板",
	CopyFailed: "复制失败",

	ExportDone:     "导出成功",
	ExportFailed:   "导出失败",
	ExportFailedAt: "导出失败: %s",

	PageError:     "页面发生错误，请刷新页面重试",
	ConfirmAction: "确定要执行此操作吗？",

	NameURLRequired: "网站名称和URL不能为空",
	InvalidURL:      "URL必须以 http:// 或 https:// 开头",
	InvalidInterval: "检查间隔不能少于%d秒",
	WebsiteSaved:    "网站已保存",
	WebsiteDeleted:  "网站删除成功",
	RequestFailedAt: "请求失败: %s",
	NothingSelected: "未选择任何网站",
}

var supported = []language.Tag{
	language.SimplifiedChinese,
	language.AmericanEnglish,
}

// Short date layouts matching toLocaleDateString for each supported tag.
var dateLayouts = []string{
	"2006/1/2",
	"1/2/2006",
}

var (
	cat     catalog.Catalog
	matcher = language.NewMatcher(supported)
)

func init() {
	b := catalog.NewBuilder(catalog.Fallback(language.AmericanEnglish))
	for key, text := range zhHans {
		if err := b.SetString(language.SimplifiedChinese, key, text); err != nil {
			panic(fmt.Sprintf("locale: bad catalog entry %q: %v", key, err))
		}
	}
	cat = b
}

// Locale formats catalog messages and dates for one language.
type Locale struct {
	tag        language.Tag
	printer    *message.Printer
	dateLayout string
}

// Default is the locale used when none is configured.
const Default = "zh-CN"

// New resolves name (a BCP 47 tag such as "zh-CN" or "en") to the closest
// supported locale.
func New(name string) (*Locale, error) {
	if name == "" {
		name = Default
	}
	want, err := language.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", name, err)
	}
	_, idx, confidence := matcher.Match(want)
	if confidence == language.No {
		idx = 1
	}
	tag := supported[idx]
	return &Locale{
		tag:        tag,
		printer:    message.NewPrinter(tag, message.Catalog(cat)),
		dateLayout: dateLayouts[idx],
	}, nil
}

// MustNew is New for known-good names; it falls back to English on error.
func MustNew(name string) *Locale {
	l, err := New(name)
	if err != nil {
		l, _ = New("en-US")
	}
	return l
}

// Tag returns the resolved language tag.
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// T formats the catalog message for key.
func (l *Locale) T(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}

// Date formats t as a short localized date in t's own location.
func (l *Locale) Date(t time.Time) string {
	return t.Format(l.dateLayout)
}
