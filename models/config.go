package models

import "time"

// AppConfig represents the merged configuration from .env, config.yaml and
// the environment.
type AppConfig struct {
	Lemmy   LemmyConfig   `mapstructure:"lemmy"`
	Bot     BotConfig     `mapstructure:"bot"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LemmyConfig holds the bot account and API client settings.
type LemmyConfig struct {
	Instance    string        `mapstructure:"instance"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	RetryMax    int           `mapstructure:"retry_max"`
	RateLimit   float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Timeout     time.Duration `mapstructure:"timeout"`
	ListingType string        `mapstructure:"listing_type"` // Local, All or Subscribed
	FetchLimit  int           `mapstructure:"fetch_limit"`
}

// BotConfig holds the runtime settings.
type BotConfig struct {
	DBPath            string        `mapstructure:"db_path"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	ModeratorCacheTTL time.Duration `mapstructure:"moderator_cache_ttl"`
	ProcessedTTL      time.Duration `mapstructure:"processed_ttl"`
	AdminChannelID    string        `mapstructure:"admin_channel_id"`
	DiscordToken      string        `mapstructure:"discord_token"`
}

// GRPCConfig configures the operator rule-submission API. An empty Listen
// disables it; otherwise at least one APIKey is required.
type GRPCConfig struct {
	Listen string   `mapstructure:"listen"`
	APIKey []string `mapstructure:"api_key"`
}

// MetricsConfig configures the metrics/health HTTP listener. An empty Listen
// disables it.
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}
