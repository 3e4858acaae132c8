package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/contact-mapper/internal/discover"
	"github.com/sells-group/contact-mapper/internal/fetcher"
)

// Config holds the full application configuration.
type Config struct {
	Mapper MapperConfig `yaml:"mapper" mapstructure:"mapper"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// MapperConfig configures a mapping run.
type MapperConfig struct {
	SeedPath      string   `yaml:"seed_path" mapstructure:"seed_path"`
	OutputPath    string   `yaml:"output_path" mapstructure:"output_path"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DelayMs       int      `yaml:"delay_ms" mapstructure:"delay_ms"`
	MaxCandidates int      `yaml:"max_candidates" mapstructure:"max_candidates"`
	Concurrency   int      `yaml:"concurrency" mapstructure:"concurrency"`
	UserAgent     string   `yaml:"user_agent" mapstructure:"user_agent"`
	RulesPath     string   `yaml:"rules_path" mapstructure:"rules_path"`
	ExcludePaths  []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
	FallbackSeed  bool     `yaml:"fallback_seed" mapstructure:"fallback_seed"`
	// BreakerThreshold stops fetching from a firm after this many
	// consecutive network failures or timeouts. Zero disables it.
	BreakerThreshold int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
}

// Timeout is the per-request fetch timeout.
func (m MapperConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSecs) * time.Second
}

// Delay is the polite delay between requests to one firm.
func (m MapperConfig) Delay() time.Duration {
	return time.Duration(m.DelayMs) * time.Millisecond
}

// StoreConfig configures the optional run ledger. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and the environment, in
// increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("mapper.seed_path", "data/legal_signal_leads.json")
	v.SetDefault("mapper.output_path", "data/legal_contacts.json")
	v.SetDefault("mapper.timeout_secs", 10)
	v.SetDefault("mapper.delay_ms", 750)
	v.SetDefault("mapper.max_candidates", discover.MaxCandidates)
	v.SetDefault("mapper.concurrency", 1)
	v.SetDefault("mapper.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("mapper.rules_path", "")
	v.SetDefault("mapper.exclude_paths", []string{})
	v.SetDefault("mapper.fallback_seed", false)
	v.SetDefault("mapper.breaker_threshold", 0)
	v.SetDefault("store.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks value ranges after flags have been applied.
func (c *Config) Validate() error {
	var problems []string
	m := c.Mapper
	if m.TimeoutSecs <= 0 {
		problems = append(problems, "mapper.timeout_secs must be positive")
	}
	if m.DelayMs < 0 {
		problems = append(problems, "mapper.delay_ms must not be negative")
	}
	if m.MaxCandidates < 1 || m.MaxCandidates > discover.MaxCandidates {
		problems = append(problems, "mapper.max_candidates must be between 1 and 25")
	}
	if m.BreakerThreshold < 0 {
		problems = append(problems, "mapper.breaker_threshold must not be negative")
	}
	if m.Concurrency < 1 {
		problems = append(problems, "mapper.concurrency must be at least 1")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		problems = append(problems, `log.format must be "json" or "console"`)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
