package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all engine configuration.
type Config struct {
	Logger   LoggerConfig
	Engine   EngineConfig
	Delivery DeliveryConfig
	Redis    RedisConfig
	Discord  DiscordConfig
}

// LoggerConfig is the configuration for the logger.
type LoggerConfig struct {
	Level        string
	Mode         string
	Encoding     string
	ColorEnabled bool
}

// EngineConfig is the configuration for the alert rule evaluation engine.
type EngineConfig struct {
	// Parallelism caps concurrent configuration evaluations.
	Parallelism int
	// MaxEscalationLevel caps the per-rule escalation counter.
	MaxEscalationLevel int
	// CooldownFailOpen emits triggers even when the rule state store is
	// down (deliberate asymmetry with the frequency limiter).
	CooldownFailOpen bool
	// CacheTTL bounds aggregation result reuse across rules sharing a
	// metric; keep it at evaluation-pass granularity.
	CacheTTL time.Duration
}

// DeliveryConfig is the configuration for the notification delivery service.
type DeliveryConfig struct {
	// DispatchConcurrency bounds concurrent channel dispatches.
	DispatchConcurrency int
	// BurstPercent is the grace margin over hourly frequency limits.
	BurstPercent int
	// FrequencyFailOpen lets notifications through when the counter store
	// is unavailable. Default is fail closed.
	FrequencyFailOpen bool
}

// RedisConfig is the optional Redis backing for rule/frequency state.
// When disabled, state lives in process memory.
type RedisConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	StateTTL  time.Duration
}

// DiscordConfig backs the webhook notification channel with a Discord
// webhook. When disabled, webhook deliveries fall back to the log sender.
type DiscordConfig struct {
	Enabled    bool
	WebhookURL string
}

// Load loads configuration using Viper.
func Load() (*Config, error) {
	viper.SetConfigName("alert-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/alert-engine/")

	// Enable environment variable override
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional; env vars cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Logger.Level = viper.GetString("logger.level")
	cfg.Logger.Mode = viper.GetString("logger.mode")
	cfg.Logger.Encoding = viper.GetString("logger.encoding")
	cfg.Logger.ColorEnabled = viper.GetBool("logger.color_enabled")

	cfg.Engine.Parallelism = viper.GetInt("engine.parallelism")
	cfg.Engine.MaxEscalationLevel = viper.GetInt("engine.max_escalation_level")
	cfg.Engine.CooldownFailOpen = viper.GetBool("engine.cooldown_fail_open")
	cfg.Engine.CacheTTL = viper.GetDuration("engine.cache_ttl")

	cfg.Delivery.DispatchConcurrency = viper.GetInt("delivery.dispatch_concurrency")
	cfg.Delivery.BurstPercent = viper.GetInt("delivery.burst_percent")
	cfg.Delivery.FrequencyFailOpen = viper.GetBool("delivery.frequency_fail_open")

	cfg.Redis.Enabled = viper.GetBool("redis.enabled")
	cfg.Redis.Host = viper.GetString("redis.host")
	cfg.Redis.Port = viper.GetInt("redis.port")
	cfg.Redis.Password = viper.GetString("redis.password")
	cfg.Redis.DB = viper.GetInt("redis.db")
	cfg.Redis.KeyPrefix = viper.GetString("redis.key_prefix")
	cfg.Redis.StateTTL = viper.GetDuration("redis.state_ttl")

	cfg.Discord.Enabled = viper.GetBool("discord.enabled")
	cfg.Discord.WebhookURL = viper.GetString("discord.webhook_url")

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.mode", "production")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("logger.color_enabled", false)

	viper.SetDefault("engine.parallelism", 16)
	viper.SetDefault("engine.max_escalation_level", 5)
	viper.SetDefault("engine.cooldown_fail_open", true)
	viper.SetDefault("engine.cache_ttl", 10*time.Second)

	viper.SetDefault("delivery.dispatch_concurrency", 8)
	viper.SetDefault("delivery.burst_percent", 10)
	viper.SetDefault("delivery.frequency_fail_open", false)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.key_prefix", "alert-engine")
	viper.SetDefault("redis.state_ttl", 48*time.Hour)

	viper.SetDefault("discord.enabled", false)
}

func validate(cfg *Config) error {
	if cfg.Engine.Parallelism <= 0 {
		return fmt.Errorf("engine.parallelism must be positive, got %d", cfg.Engine.Parallelism)
	}
	if cfg.Delivery.DispatchConcurrency <= 0 {
		return fmt.Errorf("delivery.dispatch_concurrency must be positive, got %d", cfg.Delivery.DispatchConcurrency)
	}
	if cfg.Delivery.BurstPercent < 0 || cfg.Delivery.BurstPercent > 100 {
		return fmt.Errorf("delivery.burst_percent must be within [0,100], got %d", cfg.Delivery.BurstPercent)
	}
	if cfg.Redis.Enabled && cfg.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	if cfg.Discord.Enabled && cfg.Discord.WebhookURL == "" {
		return fmt.Errorf("discord.webhook_url is required when discord is enabled")
	}
	return nil
}
