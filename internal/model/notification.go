package model

// ChannelType identifies the transport a channel config targets. The core
// never builds transport payloads; it dispatches to collaborator senders
// registered per type.
type ChannelType string

const (
	ChannelEmail   ChannelType = "email"
	ChannelWebhook ChannelType = "webhook"
	ChannelSMS     ChannelType = "sms"
	ChannelPush    ChannelType = "push"
)

// IsValid checks if the channel type is valid.
func (t ChannelType) IsValid() bool {
	switch t {
	case ChannelEmail, ChannelWebhook, ChannelSMS, ChannelPush:
		return true
	default:
		return false
	}
}

// String returns the string representation of the channel type.
func (t ChannelType) String() string {
	return string(t)
}

// ChannelConfig is one notification channel entry in a configuration's
// settings. Config is an opaque blob handed to the sender unchanged.
type ChannelConfig struct {
	Type           ChannelType       `json:"type"`
	Enabled        bool              `json:"enabled"`
	Config         map[string]string `json:"config,omitempty"`
	PriorityFilter []Priority        `json:"priority_filter,omitempty"`
}

// AllowsPriority reports whether the channel accepts alerts of the given
// priority. An empty filter allows everything.
func (c ChannelConfig) AllowsPriority(p Priority) bool {
	if len(c.PriorityFilter) == 0 {
		return true
	}
	for _, allowed := range c.PriorityFilter {
		if allowed == p {
			return true
		}
	}
	return false
}

// FrequencyLimits caps notification volume per configuration+channel.
type FrequencyLimits struct {
	MaxPerHour int `json:"max_per_hour"`
	MaxPerDay  int `json:"max_per_day"`
	// CooldownBetweenSimilar is the minimum spacing, in minutes, between
	// alerts with the same signature, independent of the counters.
	CooldownBetweenSimilar int `json:"cooldown_between_similar"`
	// EscalationThreshold is the escalation level at or above which routing
	// intensifies (priority filters are bypassed).
	EscalationThreshold int `json:"escalation_threshold"`
}

// QuietHours suppresses non-exception alerts during a configured
// time-of-day range.
type QuietHours struct {
	Enabled bool `json:"enabled"`
	// Start and End are "HH:MM" in the configured timezone. End before
	// Start denotes an overnight range.
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	// Exceptions lists severities that dispatch even inside quiet hours.
	Exceptions []Priority `json:"exceptions,omitempty"`
	// AllWeekend extends quiet hours to the whole of Saturday and Sunday.
	AllWeekend bool `json:"all_weekend,omitempty"`
}

// NotificationSettings is a configuration's complete delivery policy.
type NotificationSettings struct {
	Channels        []ChannelConfig `json:"channels"`
	FrequencyLimits FrequencyLimits `json:"frequency_limits"`
	QuietHours      QuietHours      `json:"quiet_hours"`
	// EscalationDelays are ordered minute offsets; entry N is the wait
	// before escalation level N+1 re-routes a failed delivery.
	EscalationDelays []int `json:"escalation_delays,omitempty"`
}
