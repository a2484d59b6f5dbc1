// Package conf loads webmon settings from defaults, an optional YAML file,
// WEBMON_* environment variables and command-line flags.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WEBMON_SERVER_URL.
const EnvPrefix = "WEBMON"

// ConfigName is the config file looked up in the search paths.
const ConfigName = "webmon"

// Settings is the full configuration.
type Settings struct {
	Server struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"server"`

	Poll struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"poll"`

	Check struct {
		ReloadDelay time.Duration `mapstructure:"reloaddelay"`
	} `mapstructure:"check"`

	Notify struct {
		Duration       time.Duration `mapstructure:"duration"`
		MaxVisible     int           `mapstructure:"maxvisible"`
		CollapseWindow time.Duration `mapstructure:"collapsewindow"`
	} `mapstructure:"notify"`

	Netwatch struct {
		Enabled  bool          `mapstructure:"enabled"`
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"netwatch"`

	UI struct {
		Locale      string `mapstructure:"locale"`
		NarrowWidth int    `mapstructure:"narrowwidth"`
		ExportDir   string `mapstructure:"exportdir"`
	} `mapstructure:"ui"`

	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`

	Metrics struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"metrics"`

	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`
}

// New returns a viper instance with defaults, the env prefix and the
// config search paths configured.
func New() *viper.Viper {
	v := viper.New()
	setDefaultConfig(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	for _, p := range DefaultConfigPaths() {
		v.AddConfigPath(p)
	}
	return v
}

// DefaultConfigPaths lists the directories searched for webmon.yaml.
func DefaultConfigPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "webmon"))
	}
	return paths
}

// Load reads the config file, if any, and decodes and validates the
// settings. file overrides the search paths when not empty.
func Load(v *viper.Viper, file string) (*Settings, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// WriteDefault writes the default settings as YAML to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	v := viper.New()
	setDefaultConfig(v)
	data, err := yaml.Marshal(yamlValue(v.AllSettings()))
	if err != nil {
		return fmt.Errorf("error encoding default config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating directories for config file: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// yamlValue renders durations as strings such as "5m0s" so the file reads
// back through viper's duration decoding.
func yamlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = yamlValue(val)
		}
		return out
	case time.Duration:
		return t.String()
	default:
		return v
	}
}
