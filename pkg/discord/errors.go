package discord

import "errors"

var (
	errWebhookRequired = errors.New("discord: webhook is required")
)
