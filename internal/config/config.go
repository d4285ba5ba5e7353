package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/incidentsync/internal/notify"
)

type Config struct {
	API           APIConfig           `mapstructure:"api"`
	Collector     CollectorConfig     `mapstructure:"collector"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Budget        BudgetConfig        `mapstructure:"budget"`
	Channel       ChannelConfig       `mapstructure:"channel"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Status        StatusConfig        `mapstructure:"status"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type APIConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond int           `mapstructure:"rate_per_second"`
	UserAgent     string        `mapstructure:"user_agent"`
}

type CollectorConfig struct {
	MaxPages            int           `mapstructure:"max_pages"`
	PageSize            int           `mapstructure:"page_size"`
	InterPageDelay      time.Duration `mapstructure:"inter_page_delay"`
	MaxResults          int           `mapstructure:"max_results"`
	TransientRetries    int           `mapstructure:"transient_retries"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
	DateField           string        `mapstructure:"date_field"`
	DateFilterEarlyExit bool          `mapstructure:"date_filter_early_exit"`
}

type CacheConfig struct {
	VolatileTTL  time.Duration `mapstructure:"volatile_ttl"`
	ReferenceTTL time.Duration `mapstructure:"reference_ttl"`
	MaxEntries   int           `mapstructure:"max_entries"`
}

type BudgetConfig struct {
	HighBytes     int64 `mapstructure:"high_bytes"`
	CriticalBytes int64 `mapstructure:"critical_bytes"`
}

type ChannelConfig struct {
	Transport      string        `mapstructure:"transport"`
	SocketURL      string        `mapstructure:"socket_url"`
	StreamURL      string        `mapstructure:"stream_url"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	PollResource   string        `mapstructure:"poll_resource"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	PollWindow     time.Duration `mapstructure:"poll_window"`
	PollPageSize   int           `mapstructure:"poll_page_size"`
	SinceParam     string        `mapstructure:"since_param"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	Ceiling        time.Duration `mapstructure:"ceiling"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	QueueSize      int           `mapstructure:"queue_size"`
	EventResource  string        `mapstructure:"event_resource"`
	FallbackToPoll bool          `mapstructure:"fallback_to_poll"`
}

type NotificationsConfig struct {
	Capacity int           `mapstructure:"capacity"`
	Push     notify.Config `mapstructure:"push"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.rate_per_second", 5)
	v.SetDefault("api.user_agent", "incidentsync")

	v.SetDefault("collector.max_pages", 15)
	v.SetDefault("collector.page_size", 50)
	v.SetDefault("collector.inter_page_delay", "300ms")
	v.SetDefault("collector.max_results", 0)
	v.SetDefault("collector.transient_retries", 2)
	v.SetDefault("collector.retry_delay", "500ms")
	v.SetDefault("collector.date_field", "date")
	v.SetDefault("collector.date_filter_early_exit", true)

	v.SetDefault("cache.volatile_ttl", "1m")
	v.SetDefault("cache.reference_ttl", "30m")
	v.SetDefault("cache.max_entries", 256)

	v.SetDefault("budget.high_bytes", 50<<20)
	v.SetDefault("budget.critical_bytes", 100<<20)

	v.SetDefault("channel.transport", string(TransportSocket))
	v.SetDefault("channel.socket_url", "")
	v.SetDefault("channel.stream_url", "")
	v.SetDefault("channel.idle_timeout", "90s")
	v.SetDefault("channel.poll_resource", "events")
	v.SetDefault("channel.poll_interval", "30s")
	v.SetDefault("channel.poll_window", "10m")
	v.SetDefault("channel.poll_page_size", 50)
	v.SetDefault("channel.since_param", "created_after")
	v.SetDefault("channel.base_delay", "1s")
	v.SetDefault("channel.ceiling", "30s")
	v.SetDefault("channel.max_attempts", 5)
	v.SetDefault("channel.queue_size", 64)
	v.SetDefault("channel.event_resource", "events")
	v.SetDefault("channel.fallback_to_poll", false)

	v.SetDefault("notifications.capacity", 100)
	v.SetDefault("notifications.push.enabled", false)
	v.SetDefault("notifications.push.server", "https://ntfy.sh")
	v.SetDefault("notifications.push.topic", "")
	v.SetDefault("notifications.push.priority", "default")
	v.SetDefault("notifications.push.tags", "rotating_light")

	v.SetDefault("status.enabled", true)
	v.SetDefault("status.addr", ":8081")
	v.SetDefault("status.heartbeat", "15s")

	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Environment variable support
	v.SetEnvPrefix("INCIDENTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("api.token", "INCIDENTSYNC_API_TOKEN")
	_ = v.BindEnv("api.base_url", "INCIDENTSYNC_API_BASE_URL")
	_ = v.BindEnv("notifications.push.token", "INCIDENTSYNC_PUSH_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
