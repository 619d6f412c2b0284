package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Encoding)

	assert.Equal(t, 16, cfg.Engine.Parallelism)
	assert.Equal(t, 5, cfg.Engine.MaxEscalationLevel)
	assert.True(t, cfg.Engine.CooldownFailOpen)
	assert.Equal(t, 10*time.Second, cfg.Engine.CacheTTL)

	assert.Equal(t, 8, cfg.Delivery.DispatchConcurrency)
	assert.Equal(t, 10, cfg.Delivery.BurstPercent)
	assert.False(t, cfg.Delivery.FrequencyFailOpen)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "alert-engine", cfg.Redis.KeyPrefix)
	assert.Equal(t, 48*time.Hour, cfg.Redis.StateTTL)

	assert.False(t, cfg.Discord.Enabled)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Engine:   EngineConfig{Parallelism: 16},
			Delivery: DeliveryConfig{DispatchConcurrency: 8, BurstPercent: 10},
		}
	}

	require.NoError(t, validate(base()))

	cfg := base()
	cfg.Engine.Parallelism = 0
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Delivery.BurstPercent = 101
	assert.Error(t, validate(cfg))

	cfg = base()
	cfg.Redis.Enabled = true
	assert.Error(t, validate(cfg), "enabled redis without a host must fail")

	cfg = base()
	cfg.Discord.Enabled = true
	assert.Error(t, validate(cfg), "enabled discord without a webhook url must fail")
}
