package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewResolvesSupportedTags(t *testing.T) {
	tests := []struct {
		name string
		want language.Tag
	}{
		{"", language.SimplifiedChinese},
		{"zh-CN", language.SimplifiedChinese},
		{"zh", language.SimplifiedChinese},
		{"en", language.AmericanEnglish},
		{"en-GB", language.AmericanEnglish},
		{"fr", language.AmericanEnglish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Tag())
		})
	}
}

func TestNewRejectsGarbage(t *testing.T) {
	_, err := New("not a tag!")
	require.Error(t, err)

	assert.Equal(t, language.AmericanEnglish, MustNew("not a tag!").Tag())
}

func TestTranslations(t *testing.T) {
	zh := MustNew("zh-CN")
	en := MustNew("en")

	assert.Equal(t, "检查失败: timeout", zh.T(CheckFailedAt, "timeout"))
	assert.Equal(t, "Check failed: timeout", en.T(CheckFailedAt, "timeout"))
	assert.Equal(t, "5分钟前", zh.T(MinutesAgo, 5))
	assert.Equal(t, "5 minutes ago", en.T(MinutesAgo, 5))
	assert.Equal(t, "网络连接已断开", zh.T(NetworkOffline))
}

func TestDate(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "2024/3/7", MustNew("zh-CN").Date(ts))
	assert.Equal(t, "3/7/2024", MustNew("en-US").Date(ts))
}
