package safety

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/repository"
)

const (
	behaviorWindow = time.Hour

	// Restriction applied when the filter escalates to a ban.
	banReason = "content policy violation"
)

// Verdict is the eligibility decision for starting a session.
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Outcome is the filter decision for one outbound message. FilteredText is
// what may be transmitted and persisted; the raw input never leaves the
// filter when FilteredText differs.
type Outcome struct {
	Allowed      bool               `json:"allowed"`
	FilteredText string             `json:"filteredMessage,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	Action       model.FilterAction `json:"action"`
}

// Filter evaluates message content and session behavior against moderation
// rules. It is consulted synchronously before every outbound message and
// every session start, for every actor.
type Filter struct {
	restrictions repository.RestrictionRepository
	telemetry    redis.Cmdable
}

func NewFilter(restrictions repository.RestrictionRepository, telemetry redis.Cmdable) *Filter {
	return &Filter{
		restrictions: restrictions,
		telemetry:    telemetry,
	}
}

// CanUserStartSession checks standing restrictions. It fails closed: if the
// restriction store cannot be reached the user is not eligible.
func (f *Filter) CanUserStartSession(ctx context.Context, userID string) Verdict {
	restriction, err := f.restrictions.FindActiveByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("restriction lookup failed, failing closed")
		return Verdict{Allowed: false, Reason: "Unable to verify account standing, please try again later"}
	}

	if restriction != nil {
		reason := "Your account is currently restricted"
		if restriction.ExpiresAt != nil {
			reason = fmt.Sprintf("Your account is restricted until %s", restriction.ExpiresAt.Format(time.RFC1123))
		}
		return Verdict{Allowed: false, Reason: reason}
	}

	return Verdict{Allowed: true}
}

// FilterMessage evaluates outgoing text. A ban outcome also records the
// restriction so the next CanUserStartSession check rejects the user.
func (f *Filter) FilterMessage(ctx context.Context, userID, text string) Outcome {
	match := matchTerms(text)
	if match == nil {
		return Outcome{Allowed: true, FilteredText: text, Action: model.FilterAllow}
	}

	switch match.action {
	case model.FilterBan:
		f.restrict(ctx, userID)
		return Outcome{
			Allowed: false,
			Reason:  "Message violates community guidelines",
			Action:  model.FilterBan,
		}

	case model.FilterEndSession:
		return Outcome{
			Allowed: false,
			Reason:  "Message violates community guidelines",
			Action:  model.FilterEndSession,
		}

	default:
		return Outcome{
			Allowed:      true,
			FilteredText: maskText(text),
			Reason:       "Some words were removed from your message",
			Action:       model.FilterWarn,
		}
	}
}

// RecordSessionBehavior feeds abuse heuristics (skip frequency, short
// sessions). Best-effort: failures are logged, never surfaced.
func (f *Filter) RecordSessionBehavior(ctx context.Context, userID, event string) {
	if f.telemetry == nil {
		return
	}

	key := fmt.Sprintf("behavior:%s:%s", userID, event)
	pipe := f.telemetry.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, behaviorWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("userId", userID).Str("event", event).
			Msg("failed to record session behavior")
	}
}

func (f *Filter) restrict(ctx context.Context, userID string) {
	_, err := f.restrictions.Create(ctx, model.CreateRestrictionParams{
		UserID: userID,
		Reason: banReason,
	})
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to persist ban restriction")
		return
	}

	log.Warn().Str("userId", userID).Msg("user banned by content filter")
}
