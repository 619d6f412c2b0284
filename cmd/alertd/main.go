package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alert-engine/config"
	"alert-engine/internal/aggregate"
	"alert-engine/internal/engine"
	engineuc "alert-engine/internal/engine/usecase"
	"alert-engine/internal/model"
	"alert-engine/internal/notify"
	notifyuc "alert-engine/internal/notify/usecase"
	"alert-engine/internal/state"
	"alert-engine/pkg/clock"
	"alert-engine/pkg/discord"
	"alert-engine/pkg/log"
	"alert-engine/pkg/redis"
)

func main() {
	configsPath := flag.String("configurations", "configurations.json", "path to the alert configurations JSON file")
	readingsPath := flag.String("readings", "readings.json", "path to the sensor readings JSON file")
	deadline := flag.Duration("deadline", 30*time.Second, "soft deadline for the evaluation pass")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Failed to load config: ", err)
		return
	}

	// Initialize logger
	logger := log.Init(log.ZapConfig{
		Level:        cfg.Logger.Level,
		Mode:         cfg.Logger.Mode,
		Encoding:     cfg.Logger.Encoding,
		ColorEnabled: cfg.Logger.ColorEnabled,
	})

	ctx, cancel := context.WithCancel(context.Background())
	registerGracefulShutdown(ctx, logger, cancel)

	// State stores: in-memory by default, Redis when configured.
	ruleStates := state.NewMemoryRuleStore()
	freqStore := state.NewMemoryFrequencyStore()
	if cfg.Redis.Enabled {
		rdb, err := redis.New(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Error(ctx, "Failed to connect to Redis: ", err)
			return
		}
		defer rdb.Close()
		logger.Infof(ctx, "Redis connected successfully to %s:%d", cfg.Redis.Host, cfg.Redis.Port)

		storeCfg := state.RedisConfig{
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.StateTTL,
		}
		ruleStates = state.NewRedisRuleStore(rdb.GetClient(), storeCfg)
		freqStore = state.NewRedisFrequencyStore(rdb.GetClient(), storeCfg)
	}

	clk := clock.New()
	aggregator := aggregate.New(aggregate.NewCache(clk, cfg.Engine.CacheTTL))

	evaluator := engineuc.New(logger, clk, aggregator, ruleStates, engineuc.Config{
		Parallelism:        cfg.Engine.Parallelism,
		MaxEscalationLevel: cfg.Engine.MaxEscalationLevel,
		CooldownFailOpen:   cfg.Engine.CooldownFailOpen,
	})

	// Email, SMS and push have no transports in this harness; they log.
	// The webhook channel posts to Discord when configured.
	senders := notify.SenderRegistry{}
	for _, t := range []model.ChannelType{model.ChannelEmail, model.ChannelWebhook, model.ChannelSMS, model.ChannelPush} {
		senders[t] = loggingSender{logger: logger}
	}
	if cfg.Discord.Enabled {
		dc, err := discord.New(logger, cfg.Discord.WebhookURL)
		if err != nil {
			logger.Error(ctx, "Failed to initialize Discord webhook: ", err)
			return
		}
		defer dc.Close()
		senders[model.ChannelWebhook] = discordSender{client: dc}
	}
	delivery := notifyuc.New(logger, clk, freqStore, senders, notifyuc.Config{
		DispatchConcurrency: cfg.Delivery.DispatchConcurrency,
		BurstPercent:        &cfg.Delivery.BurstPercent,
		FrequencyFailOpen:   cfg.Delivery.FrequencyFailOpen,
	})

	if err := runPass(ctx, logger, evaluator, delivery, *configsPath, *readingsPath, *deadline); err != nil {
		logger.Error(ctx, "Evaluation pass failed: ", err)
		os.Exit(1)
	}
}

func runPass(ctx context.Context, logger log.Logger, evaluator engine.UseCase, delivery notify.UseCase, configsPath, readingsPath string, deadline time.Duration) error {
	configs, err := loadConfigurations(configsPath)
	if err != nil {
		return err
	}
	readings, err := loadReadings(readingsPath)
	if err != nil {
		return err
	}

	ectx := model.EvaluationContext{
		CurrentTime: time.Now().UTC(),
		Readings:    readings,
	}

	passCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	result, evalErr := evaluator.EvaluateAlerts(passCtx, configs, ectx)
	if evalErr != nil {
		logger.Warnf(ctx, "pass completed with configuration errors: %v", evalErr)
	}
	logger.Infof(ctx, "pass complete: evaluated=%d skipped=%d failed=%d alerts=%d deadline_exceeded=%v",
		result.Evaluated, result.Skipped, result.Failed, len(result.Alerts), result.DeadlineExceeded)

	byID := make(map[string]model.AlertConfiguration, len(configs))
	for _, c := range configs {
		byID[c.ID] = c
	}
	for _, inst := range result.Alerts {
		settings := byID[inst.ConfigurationID].Notifications
		if _, err := delivery.SendAlertNotifications(ctx, settings, inst); err != nil {
			logger.Warnf(ctx, "notification dispatch for alert %s failed: %v", inst.ID, err)
		}
	}

	out, err := json.MarshalIndent(result.Alerts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alerts: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func loadConfigurations(path string) ([]model.AlertConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configurations: %w", err)
	}
	var configs []model.AlertConfiguration
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("decode configurations: %w", err)
	}
	for i := range configs {
		if err := model.ValidateConfiguration(&configs[i]); err != nil {
			return nil, fmt.Errorf("configuration %s invalid: %w", configs[i].ID, err)
		}
	}
	return configs, nil
}

func loadReadings(path string) ([]model.SensorReading, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read readings: %w", err)
	}
	var readings []model.SensorReading
	if err := json.Unmarshal(data, &readings); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}
	return readings, nil
}

// loggingSender stands in for collaborator transports in the harness.
type loggingSender struct {
	logger log.Logger
}

func (s loggingSender) Send(ctx context.Context, channel model.ChannelConfig, inst *model.AlertInstance) error {
	s.logger.Infof(ctx, "[%s] %s: %s (severity=%s, escalation=%d)",
		channel.Type, inst.ID, inst.Title, inst.Severity, inst.EscalationLevel)
	return nil
}

// discordSender delivers webhook-channel alerts as Discord embeds.
type discordSender struct {
	client discord.IDiscord
}

func (s discordSender) Send(ctx context.Context, channel model.ChannelConfig, inst *model.AlertInstance) error {
	fields := make([]discord.EmbedField, 0, len(inst.Metrics)+2)
	fields = append(fields,
		discord.EmbedField{Name: "Severity", Value: inst.Severity.String(), Inline: true},
		discord.EmbedField{Name: "Escalation", Value: fmt.Sprintf("%d", inst.EscalationLevel), Inline: true},
	)
	for _, m := range inst.Metrics {
		fields = append(fields, discord.EmbedField{
			Name:  m.MetricType,
			Value: fmt.Sprintf("%.4g (threshold %.4g, %d samples over %dm)", m.Observed, m.Threshold, m.SampleCount, m.WindowMinutes),
		})
	}

	return s.client.SendEmbed(ctx, discord.MessageOptions{
		Type:        messageTypeForSeverity(inst.Severity),
		Title:       inst.Title,
		Description: inst.Description,
		Fields:      fields,
		Timestamp:   inst.TriggeredAt,
		Footer:      "alert " + inst.ID,
	})
}

func messageTypeForSeverity(p model.Priority) discord.MessageType {
	switch p {
	case model.PriorityCritical, model.PriorityHigh:
		return discord.MessageTypeError
	case model.PriorityMedium:
		return discord.MessageTypeWarning
	default:
		return discord.MessageTypeInfo
	}
}

// registerGracefulShutdown registers a signal handler for graceful shutdown.
func registerGracefulShutdown(ctx context.Context, logger log.Logger, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info(ctx, "Shutting down gracefully...")
		cancel()
	}()
}
