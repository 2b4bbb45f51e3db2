package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cnharrison/harq/internal/source"
)

// EnvPrefix prefixes every environment variable, e.g. HARQ_SERVER_ADDR
const EnvPrefix = "HARQ"

// Config holds the application configuration
type Config struct {
	Verbose bool `mapstructure:"verbose"`
	Quiet   bool `mapstructure:"quiet"`

	BrowserMob BrowserMobConfig `mapstructure:"browsermob"`
	HAR        HARConfig        `mapstructure:"har"`
	Output     OutputConfig     `mapstructure:"output"`
	Server     ServerConfig     `mapstructure:"server"`
}

// BrowserMobConfig locates a running BrowserMob Proxy service
type BrowserMobConfig struct {
	URL string `mapstructure:"url"`
	// Port attaches to an existing proxy port; 0 means pick or create one.
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// HARConfig lists HAR files or doublestar globs to query instead of a live proxy
type HARConfig struct {
	Files []string `mapstructure:"files"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Select string `mapstructure:"select"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("browsermob.url", source.DefaultBrowserMobURL)
	v.SetDefault("browsermob.port", 0)
	v.SetDefault("browsermob.timeout", 30*time.Second)
	v.SetDefault("har.files", []string{})
	v.SetDefault("output.format", "json")
	v.SetDefault("output.select", "")
	v.SetDefault("server.addr", "127.0.0.1:8088")
}

// Load reads configuration into v from cfgFile, or from .harq.yaml in the
// home or working directory when cfgFile is empty, then the environment.
// A missing default config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".harq")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// BROWSERMOB_PROXY_URL is the legacy name still honored
	_ = v.BindEnv("browsermob.url", EnvPrefix+"_BROWSERMOB_URL", "BROWSERMOB_PROXY_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be fixed up silently
func (c *Config) Validate() error {
	if c.Verbose && c.Quiet {
		return errors.New("verbose and quiet are mutually exclusive")
	}
	if c.BrowserMob.Port < 0 || c.BrowserMob.Port > 65535 {
		return fmt.Errorf("invalid browsermob port %d", c.BrowserMob.Port)
	}
	if c.BrowserMob.Timeout < 0 {
		return fmt.Errorf("invalid browsermob timeout %s", c.BrowserMob.Timeout)
	}
	return nil
}

// UsesFiles reports whether queries should read HAR files instead of a live proxy
func (c *Config) UsesFiles() bool {
	return len(c.HAR.Files) > 0
}
