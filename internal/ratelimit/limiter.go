package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/config"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

// Rule is one sliding-window limit. Max <= 0 disables the window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of a limit check. Cooldown marks a denial caused by
// the inter-session delay rather than a window limit.
type Decision struct {
	Allowed           bool   `json:"allowed"`
	Message           string `json:"message,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
	Cooldown          bool   `json:"-"`
}

// Store tracks action timestamps. Check and Record are separate on purpose:
// an action is recorded only after it actually executed.
type Store interface {
	// Count returns how many entries fall inside the window and when the
	// oldest of them leaves it.
	Count(ctx context.Context, key string, window time.Duration) (count int, oldestExpiry time.Time, err error)
	Record(ctx context.Context, key string, window time.Duration) error
	// Last returns when the key was last stamped; zero time when never.
	Last(ctx context.Context, key string) (time.Time, error)
	Stamp(ctx context.Context, key string, ttl time.Duration) error
}

// Limiter enforces independent per-user sliding windows per action kind, plus
// a minimum inter-session delay for session starts.
type Limiter struct {
	store           Store
	rules           map[model.ActionKind]Rule
	sessionCooldown time.Duration
}

func NewLimiter(store Store, cfg *config.Config) *Limiter {
	return &Limiter{
		store: store,
		rules: map[model.ActionKind]Rule{
			model.ActionConnect:      {Max: cfg.ConnectLimitPerMin, Window: config.ConnectWindow},
			model.ActionMessage:      {Max: cfg.MessageLimitPerMin, Window: config.MessageWindow},
			model.ActionSkip:         {Max: cfg.SkipLimitPerMin, Window: config.SkipWindow},
			model.ActionReport:       {Max: cfg.ReportLimitPerHour, Window: config.ReportWindow},
			model.ActionSessionStart: {Max: cfg.SessionStartLimitPerMin, Window: config.SessionStartWindow},
		},
		sessionCooldown: cfg.SessionCooldown(),
	}
}

// NewLimiterWithRules builds a limiter with explicit rules.
func NewLimiterWithRules(store Store, rules map[model.ActionKind]Rule, sessionCooldown time.Duration) *Limiter {
	return &Limiter{store: store, rules: rules, sessionCooldown: sessionCooldown}
}

func (l *Limiter) Check(ctx context.Context, userID string, action model.ActionKind) Decision {
	if action == model.ActionSessionStart && l.sessionCooldown > 0 {
		if d := l.checkCooldown(ctx, userID); !d.Allowed {
			return d
		}
	}

	rule, ok := l.rules[action]
	if !ok || rule.Max <= 0 {
		return Decision{Allowed: true}
	}

	key := actionKey(userID, action)
	count, oldestExpiry, err := l.store.Count(ctx, key, rule.Window)
	if err != nil {
		log.Warn().Err(err).Str("userId", userID).Str("action", string(action)).
			Msg("rate limit check failed, denying action for safety")
		return deny(action, retryAfter(time.Now().Add(rule.Window)))
	}

	if count >= rule.Max {
		return deny(action, retryAfter(oldestExpiry))
	}

	return Decision{Allowed: true}
}

// Record must be called only after a successful Check and only for actions
// that actually executed.
func (l *Limiter) Record(ctx context.Context, userID string, action model.ActionKind) {
	rule, ok := l.rules[action]
	if ok && rule.Max > 0 {
		if err := l.store.Record(ctx, actionKey(userID, action), rule.Window); err != nil {
			log.Warn().Err(err).Str("userId", userID).Str("action", string(action)).
				Msg("failed to record rate limit entry")
		}
	}

	if action == model.ActionSessionStart && l.sessionCooldown > 0 {
		if err := l.store.Stamp(ctx, cooldownKey(userID), l.sessionCooldown); err != nil {
			log.Warn().Err(err).Str("userId", userID).Msg("failed to stamp session cooldown")
		}
	}
}

func (l *Limiter) checkCooldown(ctx context.Context, userID string) Decision {
	last, err := l.store.Last(ctx, cooldownKey(userID))
	if err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("cooldown check failed, denying action for safety")
		return Decision{
			Allowed:           false,
			Message:           fmt.Sprintf("Please wait %d seconds before starting a new chat", int(l.sessionCooldown.Seconds())),
			RetryAfterSeconds: int(l.sessionCooldown.Seconds()),
			Cooldown:          true,
		}
	}
	if last.IsZero() {
		return Decision{Allowed: true}
	}

	readyAt := last.Add(l.sessionCooldown)
	if time.Now().Before(readyAt) {
		wait := retryAfter(readyAt)
		return Decision{
			Allowed:           false,
			Message:           fmt.Sprintf("Please wait %d seconds before starting a new chat", wait),
			RetryAfterSeconds: wait,
			Cooldown:          true,
		}
	}
	return Decision{Allowed: true}
}

func deny(action model.ActionKind, retryAfterSeconds int) Decision {
	return Decision{
		Allowed:           false,
		Message:           fmt.Sprintf("Too many %s actions, try again in %d seconds", actionLabel(action), retryAfterSeconds),
		RetryAfterSeconds: retryAfterSeconds,
	}
}

func actionLabel(action model.ActionKind) string {
	switch action {
	case model.ActionSessionStart:
		return "new chat"
	case model.ActionSkip:
		return "skip"
	case model.ActionReport:
		return "report"
	case model.ActionMessage:
		return "message"
	default:
		return "connection"
	}
}

func retryAfter(at time.Time) int {
	seconds := int(math.Ceil(time.Until(at).Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func actionKey(userID string, action model.ActionKind) string {
	return fmt.Sprintf("%s:%s", userID, action)
}

func cooldownKey(userID string) string {
	return fmt.Sprintf("%s:session_cooldown", userID)
}
