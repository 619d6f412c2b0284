package discord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"alert-engine/pkg/log"
)

// DefaultConfig returns the default Discord config.
func DefaultConfig() Config {
	return Config{
		Timeout:         DefaultTimeout,
		RetryCount:      DefaultRetryCount,
		RetryDelay:      DefaultRetryDelay,
		DefaultUsername: DefaultUsername,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

func newImpl(l log.Logger, id, token string) (IDiscord, error) {
	if id == "" || token == "" {
		return nil, errWebhookRequired
	}
	cfg := DefaultConfig()
	return &discordImpl{
		l:       l,
		webhook: &webhookInfo{id: id, token: token},
		config:  cfg,
		client:  newHTTPClient(cfg.Timeout),
	}, nil
}

func (d *discordImpl) GetWebhookURL() string {
	return fmt.Sprintf(webhookURLTemplate, d.webhook.id, d.webhook.token)
}

func (d *discordImpl) Close() error {
	if d.client != nil {
		d.client.CloseIdleConnections()
	}
	return nil
}

// SendMessage posts a plain text message.
func (d *discordImpl) SendMessage(ctx context.Context, content string) error {
	if err := d.validateMessageLength(content); err != nil {
		return err
	}
	return d.sendWithRetry(ctx, &WebhookPayload{
		Content:  content,
		Username: d.config.DefaultUsername,
	})
}

// SendEmbed posts one embed message. Title and description are truncated to
// Discord's limits; the overall embed length is validated before sending.
func (d *discordImpl) SendEmbed(ctx context.Context, options MessageOptions) error {
	embed := Embed{
		Title:       truncateString(options.Title, MaxTitleLen),
		Description: truncateString(options.Description, MaxDescriptionLen),
		Color:       colorForType(options.Type),
	}
	if !options.Timestamp.IsZero() {
		embed.Timestamp = options.Timestamp.Format(time.RFC3339)
	}
	for _, f := range options.Fields {
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   f.Name,
			Value:  truncateString(f.Value, MaxFieldValueLen),
			Inline: f.Inline,
		})
	}
	if options.Footer != "" {
		embed.Footer = &EmbedFooter{Text: options.Footer}
	}

	if err := d.validateEmbedLength(&embed); err != nil {
		return err
	}
	return d.sendWithRetry(ctx, &WebhookPayload{
		Username: d.config.DefaultUsername,
		Embeds:   []Embed{embed},
	})
}

func colorForType(msgType MessageType) int {
	switch msgType {
	case MessageTypeInfo:
		return ColorInfo
	case MessageTypeSuccess:
		return ColorSuccess
	case MessageTypeWarning:
		return ColorWarning
	case MessageTypeError:
		return ColorError
	default:
		return ColorInfo
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
