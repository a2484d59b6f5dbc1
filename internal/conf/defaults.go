package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("server.url", "http://localhost:5000")
	v.SetDefault("server.timeout", time.Duration(0))

	v.SetDefault("poll.interval", 5*time.Minute)
	v.SetDefault("check.reloaddelay", 1500*time.Millisecond)

	v.SetDefault("notify.duration", 5*time.Second)
	v.SetDefault("notify.maxvisible", 0)
	v.SetDefault("notify.collapsewindow", time.Duration(0))

	v.SetDefault("netwatch.enabled", true)
	v.SetDefault("netwatch.interval", 10*time.Second)

	v.SetDefault("ui.locale", "zh-CN")
	v.SetDefault("ui.narrowwidth", 100)
	v.SetDefault("ui.exportdir", ".")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "webmon.log")

	v.SetDefault("metrics.listen", "")
	v.SetDefault("sentry.dsn", "")
}
