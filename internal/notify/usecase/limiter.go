package usecase

import (
	"context"
	"fmt"
	"time"

	"alert-engine/internal/model"
	"alert-engine/internal/state"
)

// limiterDecision is the frequency gate's verdict for one channel.
type limiterDecision struct {
	allowed bool
	reason  string
}

func frequencyKey(configurationID string, channel model.ChannelType) string {
	return configurationID + "|" + string(channel)
}

// checkFrequency applies the tiered frequency limits for one
// (configuration, channel) pair and, when allowed, consumes one slot from
// both windows. The check and the increment are atomic under the store's
// per-key lock so concurrent dispatches cannot overshoot the cap.
func (uc *implUseCase) checkFrequency(ctx context.Context, configurationID string, channel model.ChannelType, signature string, limits model.FrequencyLimits, now time.Time) limiterDecision {
	decision := limiterDecision{allowed: true}

	err := uc.freq.Mutate(ctx, frequencyKey(configurationID, channel), func(st *state.FrequencyCounterState) error {
		resetWindows(st, now)

		if limits.MaxPerHour > 0 {
			burst := limits.MaxPerHour * uc.burstPercent / 100
			if st.HourCount >= limits.MaxPerHour+burst {
				decision = limiterDecision{reason: fmt.Sprintf("hourly limit reached (%d+%d burst)", limits.MaxPerHour, burst)}
				return nil
			}
		}
		if limits.MaxPerDay > 0 && st.DayCount >= limits.MaxPerDay {
			decision = limiterDecision{reason: fmt.Sprintf("daily limit reached (%d)", limits.MaxPerDay)}
			return nil
		}

		similarCooldown := time.Duration(limits.CooldownBetweenSimilar) * time.Minute
		if similarCooldown > 0 && signature != "" {
			if last, ok := st.LastSimilar[signature]; ok && now.Sub(last) < similarCooldown {
				decision = limiterDecision{reason: "similar alert sent too recently"}
				return nil
			}
		}

		st.HourCount++
		st.DayCount++
		if similarCooldown > 0 && signature != "" {
			if st.LastSimilar == nil {
				st.LastSimilar = make(map[string]time.Time)
			}
			st.LastSimilar[signature] = now
			pruneSimilar(st, now, similarCooldown)
		}
		return nil
	})
	if err != nil {
		if uc.cfg.FrequencyFailOpen {
			uc.logger.Warnf(ctx, "frequency store unavailable for %s/%s, failing open: %v", configurationID, channel, err)
			return limiterDecision{allowed: true}
		}
		// Fail closed: treat an unreadable counter as a reached limit so a
		// store outage cannot turn into a notification storm.
		uc.logger.Errorf(ctx, "frequency store unavailable for %s/%s, failing closed: %v", configurationID, channel, err)
		return limiterDecision{reason: "frequency state unavailable"}
	}
	return decision
}

func resetWindows(st *state.FrequencyCounterState, now time.Time) {
	if st.HourWindowStart.IsZero() || now.Sub(st.HourWindowStart) >= time.Hour {
		st.HourWindowStart = now
		st.HourCount = 0
	}
	if st.DayWindowStart.IsZero() || now.Sub(st.DayWindowStart) >= 24*time.Hour {
		st.DayWindowStart = now
		st.DayCount = 0
	}
}

// pruneSimilar drops stale similarity timestamps so the map stays bounded.
func pruneSimilar(st *state.FrequencyCounterState, now time.Time, cooldown time.Duration) {
	for sig, at := range st.LastSimilar {
		if now.Sub(at) >= cooldown {
			delete(st.LastSimilar, sig)
		}
	}
}
