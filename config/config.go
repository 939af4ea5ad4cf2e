package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lemmy-automod/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingCredentials is returned by Load when the bot account is not configured.
var ErrMissingCredentials = errors.New("undefined username, password or instance; check your .env file")

// ErrMissingAPIKey is returned by Load when the operator API is enabled
// without a key.
var ErrMissingAPIKey = errors.New("grpc.listen is set but grpc.api_key is empty")

// LoadConfig loads configuration from its sources:
// 1. .env file (environment variables)
// 2. config.yaml (base configuration)
// Environment variables override settings of the same name, with '.' in keys
// mapped to '_' (lemmy.instance -> LEMMY_INSTANCE).
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Printf("No config.yaml found, using environment variables and defaults.")
		} else {
			// A config file that exists but does not parse is fatal.
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}
}

// setDefaults registers every key so that environment overrides are visible
// to Unmarshal even when config.yaml does not mention them.
func setDefaults() {
	viper.SetDefault("lemmy.instance", "")
	viper.SetDefault("lemmy.username", "")
	viper.SetDefault("lemmy.password", "")
	viper.SetDefault("lemmy.retry_max", 0)
	viper.SetDefault("lemmy.rate_limit", 5.0)
	viper.SetDefault("lemmy.timeout", 15*time.Second)
	viper.SetDefault("lemmy.listing_type", "Local")
	viper.SetDefault("lemmy.fetch_limit", 50)

	viper.SetDefault("bot.db_path", "db.sqlite3")
	viper.SetDefault("bot.poll_interval", 2*time.Second)
	viper.SetDefault("bot.moderator_cache_ttl", 5*time.Minute)
	viper.SetDefault("bot.processed_ttl", 31*24*time.Hour)
	viper.SetDefault("bot.admin_channel_id", "")
	viper.SetDefault("bot.discord_token", "")

	viper.SetDefault("grpc.listen", "")
	viper.SetDefault("grpc.api_key", []string{})

	viper.SetDefault("metrics.listen", "")
}

// Load runs LoadConfig and decodes the result into an AppConfig.
func Load() (models.AppConfig, error) {
	LoadConfig()
	return Decode()
}

// Decode decodes the current viper state into an AppConfig and checks the
// settings the bot cannot run without.
func Decode() (models.AppConfig, error) {
	var cfg models.AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if cfg.Lemmy.Instance == "" || cfg.Lemmy.Username == "" || cfg.Lemmy.Password == "" {
		return cfg, ErrMissingCredentials
	}
	if cfg.Bot.PollInterval <= 0 {
		return cfg, fmt.Errorf("bot.poll_interval must be positive, got %s", cfg.Bot.PollInterval)
	}
	if cfg.GRPC.Listen != "" && !hasKey(cfg.GRPC.APIKey) {
		return cfg, ErrMissingAPIKey
	}
	return cfg, nil
}

func hasKey(keys []string) bool {
	for _, k := range keys {
		if strings.TrimSpace(k) != "" {
			return true
		}
	}
	return false
}
