package usecase

import (
	"context"
	"time"

	"alert-engine/internal/model"
)

// route selects the channels an alert instance may be delivered through:
// enabled, severity accepted by the channel's priority filter, outside quiet
// hours (or severity excepted), and within frequency limits. Channels
// filtered by quiet hours or the frequency gate leave a log entry; disabled
// or priority-mismatched channels are simply not applicable and leave none.
func (uc *implUseCase) route(ctx context.Context, settings model.NotificationSettings, inst *model.AlertInstance, escalationLevel int, now time.Time) ([]model.ChannelConfig, []model.NotificationLogEntry) {
	var (
		jobs    []model.ChannelConfig
		entries []model.NotificationLogEntry
	)

	// Escalated alerts route more widely: past the escalation threshold the
	// per-channel priority filters no longer narrow the channel list.
	bypassPriority := settings.FrequencyLimits.EscalationThreshold > 0 &&
		escalationLevel >= settings.FrequencyLimits.EscalationThreshold

	for _, channel := range settings.Channels {
		if !channel.Enabled {
			continue
		}
		if !bypassPriority && !channel.AllowsPriority(inst.Severity) {
			continue
		}

		if uc.inQuietHours(ctx, settings.QuietHours, inst.Severity, now) {
			entries = append(entries, model.NotificationLogEntry{
				Channel:         channel.Type,
				Outcome:         model.OutcomeSkipped,
				AttemptedAt:     now,
				EscalationLevel: escalationLevel,
				Error:           "quiet hours",
			})
			continue
		}

		decision := uc.checkFrequency(ctx, inst.ConfigurationID, channel.Type, inst.Signature, settings.FrequencyLimits, now)
		if !decision.allowed {
			entries = append(entries, model.NotificationLogEntry{
				Channel:         channel.Type,
				Outcome:         model.OutcomeRateLimited,
				AttemptedAt:     now,
				EscalationLevel: escalationLevel,
				Error:           decision.reason,
			})
			continue
		}

		jobs = append(jobs, channel)
	}
	return jobs, entries
}

// inQuietHours reports whether delivery of the given severity is muted at
// the given instant. The range is interpreted in the configured timezone;
// an End before Start wraps past midnight.
func (uc *implUseCase) inQuietHours(ctx context.Context, q model.QuietHours, severity model.Priority, now time.Time) bool {
	if !q.Enabled {
		return false
	}
	for _, excepted := range q.Exceptions {
		if excepted == severity {
			return false
		}
	}

	local := now
	if q.Timezone != "" {
		loc, err := time.LoadLocation(q.Timezone)
		if err != nil {
			uc.logger.Warnf(ctx, "quiet hours timezone %q invalid, using UTC: %v", q.Timezone, err)
		} else {
			local = now.In(loc)
		}
	}

	if q.AllWeekend {
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return true
		}
	}

	start, err := model.ParseClockTime(q.Start)
	if err != nil {
		return false
	}
	end, err := model.ParseClockTime(q.End)
	if err != nil {
		return false
	}
	minute := model.ClockTime(local.Hour()*60 + local.Minute())

	if start <= end {
		return minute >= start && minute < end
	}
	// Overnight range, e.g. 22:00-06:00.
	return minute >= start || minute < end
}
