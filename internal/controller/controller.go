package controller

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/audit"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/config"
	apperrors "github.com/amogelangphejane-blip/Wuuble-sub003/internal/errors"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/metrics"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/ratelimit"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/rtc"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/safety"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/service"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/signaling"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/util"
)

// Deps are the collaborators one Controller instance drives.
type Deps struct {
	Channel  signaling.Channel
	Peers    rtc.Manager
	Limiter  *ratelimit.Limiter
	Filter   *safety.Filter
	Sessions *service.SessionService
	Messages *service.MessageService
	Reports  *service.ReportService

	// SearchAttempts bounds partner-search retries. Zero means one attempt.
	SearchAttempts int
}

// Controller is the per-participant session state machine. It owns the
// lifecycle disconnected -> searching -> connecting -> connected and mediates
// every user action through eligibility, rate-limit and content-safety gates,
// in that order.
type Controller struct {
	deps  Deps
	retry searchRetry

	mu           sync.Mutex
	self         model.Participant
	state        State
	mode         model.SessionMode
	sessionID    string
	roomID       string
	partner      *model.Participant
	prefs        model.Preferences
	media        rtc.LocalMedia
	searchCancel context.CancelFunc
	unread       int
	chatOpen     bool
	events       Events
}

func New(self model.Participant, deps Deps) *Controller {
	c := &Controller{
		deps:  deps,
		self:  self,
		state: StateDisconnected,
		retry: searchRetry{
			attempts: deps.SearchAttempts,
			initial:  config.SearchBackoffInitial,
			max:      config.SearchBackoffMax,
		},
	}

	deps.Channel.SetEvents(signaling.Events{
		OnDisconnected: c.handleSignalingLost,
		OnMatchFound:   c.handleMatchFound,
		OnUserJoined:   c.handleUserJoined,
		OnUserLeft:     c.handleUserLeft,
		OnQueueStatus:  c.handleQueueStatus,
		OnMessage:      c.handleEnvelope,
	})
	deps.Peers.SetSignalHandler(c.relaySignal)
	deps.Peers.SetStateHandler(c.handlePeerState)
	deps.Peers.SetRemoteStreamHandler(c.handleRemoteStream)

	return c
}

func (c *Controller) SetEvents(events Events) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = events
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Partner returns a copy of the current partner, nil outside a pair session.
func (c *Controller) Partner() *model.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.partner == nil {
		return nil
	}
	p := *c.partner
	return &p
}

// Self returns the participant's current presence, including media flags.
func (c *Controller) Self() model.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

// UnreadCount is the number of partner messages received while the chat
// panel was closed.
func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// SetChatOpen tracks chat visibility; opening the panel clears unread.
func (c *Controller) SetChatOpen(open bool) {
	c.mu.Lock()
	c.chatOpen = open
	if open {
		c.unread = 0
	}
	events := c.events
	c.mu.Unlock()

	if open && events.OnUnreadCount != nil {
		events.OnUnreadCount(0)
	}
}

// StartSearch begins looking for a random partner. Gate order is fixed:
// account standing, then rate limits, then media, then signaling. A denied
// camera aborts before any signaling traffic so the user is never enqueued.
func (c *Controller) StartSearch(ctx context.Context, prefs model.Preferences) error {
	prefs = prefs.Normalize()

	c.mu.Lock()
	if c.state != StateDisconnected {
		busy := busyError(c.state)
		c.mu.Unlock()
		return busy
	}
	c.state = StateSearching
	c.prefs = prefs
	events := c.events
	c.mu.Unlock()

	fail := func(err error) error {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	if verdict := c.deps.Filter.CanUserStartSession(ctx, c.self.UserID); !verdict.Allowed {
		return fail(apperrors.AccountRestricted(verdict.Reason))
	}

	if err := c.checkLimit(ctx, model.ActionConnect, "connect"); err != nil {
		return fail(err)
	}
	if err := c.checkLimit(ctx, model.ActionSessionStart, "session_start"); err != nil {
		return fail(err)
	}

	if err := c.ensureMedia(ctx); err != nil {
		return fail(err)
	}

	if err := c.deps.Channel.Connect(ctx); err != nil {
		return fail(apperrors.SignalingDisconnected(err))
	}

	c.deps.Limiter.Record(ctx, c.self.UserID, model.ActionConnect)
	c.deps.Limiter.Record(ctx, c.self.UserID, model.ActionSessionStart)

	c.beginSearch()
	events.stateChange(StateSearching)
	return nil
}

// NextPartner ends the current session and immediately searches again,
// reusing the already-acquired media. Governed by the skip rate limit.
func (c *Controller) NextPartner(ctx context.Context) error {
	if !c.inSession() {
		return apperrors.NoActiveSession()
	}

	if err := c.checkLimit(ctx, model.ActionSkip, "skip"); err != nil {
		return err
	}
	c.deps.Limiter.Record(ctx, c.self.UserID, model.ActionSkip)
	c.deps.Filter.RecordSessionBehavior(ctx, c.self.UserID, "skip")

	c.endSession(ctx, model.EndReasonUserEnded, endOpts{notifyPartner: true, persist: true, keepMedia: true})

	c.mu.Lock()
	c.state = StateSearching
	events := c.events
	c.mu.Unlock()

	c.beginSearch()
	events.stateChange(StateSearching)
	return nil
}

// EndChat terminates the current activity. Idempotent: calling it while
// disconnected is a no-op success.
func (c *Controller) EndChat(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateDisconnected:
		return nil

	case StateSearching:
		c.cancelSearch()
		if err := c.deps.Channel.CancelSearch(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to cancel partner search")
		}

		c.mu.Lock()
		c.state = StateDisconnected
		media := c.media
		c.media = nil
		events := c.events
		c.mu.Unlock()

		if media != nil {
			media.Release()
		}
		events.stateChange(StateDisconnected)
		return nil

	default:
		c.endSession(ctx, model.EndReasonUserEnded, endOpts{notifyPartner: true, persist: true})
		return nil
	}
}

// SendMessage filters and transmits a chat message. The raw text never leaves
// the filter: what is sent, echoed and persisted is the filtered form.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return apperrors.InvalidInput("message", "must not be empty")
	}

	c.mu.Lock()
	state := c.state
	roomID := c.roomID
	sessionID := c.sessionID
	events := c.events
	c.mu.Unlock()

	if state != StateConnecting && state != StateConnected && state != StateReconnecting {
		return apperrors.NoActiveSession()
	}

	if err := c.checkLimit(ctx, model.ActionMessage, "message"); err != nil {
		return err
	}

	outcome := c.deps.Filter.FilterMessage(ctx, c.self.UserID, text)
	metrics.MessagesTotal.WithLabelValues(string(outcome.Action)).Inc()

	switch outcome.Action {
	case model.FilterBan:
		audit.Log(ctx, audit.Event{
			Type:      audit.EventBanIssued,
			UserID:    c.self.UserID,
			SessionID: sessionID,
		})
		c.endSession(ctx, model.EndReasonReported, endOpts{notifyPartner: true, persist: true})
		return apperrors.AccountBanned()

	case model.FilterEndSession:
		audit.Log(ctx, audit.Event{
			Type:      audit.EventContentBlocked,
			UserID:    c.self.UserID,
			SessionID: sessionID,
		})
		c.endSession(ctx, model.EndReasonReported, endOpts{notifyPartner: true, persist: true})
		return apperrors.ContentBlocked(outcome.Reason)
	}

	data := signaling.ChatMessageData{
		MessageID: util.NewID(),
		Text:      outcome.FilteredText,
		SentAt:    time.Now().UnixMilli(),
	}
	env, err := signaling.NewEnvelope(signaling.TypeChatMessage, "", "", data)
	if err != nil {
		return apperrors.Internal("failed to encode message")
	}
	if err := c.deps.Channel.Send(ctx, env); err != nil {
		return apperrors.SignalingDisconnected(err)
	}

	c.deps.Limiter.Record(ctx, c.self.UserID, model.ActionMessage)

	if sessionID == "" {
		sessionID = c.lookupSessionID(ctx, roomID)
	}
	if sessionID != "" {
		c.deps.Messages.Persist(sessionID, c.self.ParticipantID, outcome.FilteredText)
	}

	if outcome.Action == model.FilterWarn && events.OnWarning != nil {
		events.OnWarning(outcome.Reason)
	}

	// Local echo: the sender sees the message immediately, without a
	// signaling round-trip.
	if events.OnMessage != nil {
		events.OnMessage(model.ChatMessage{
			ID:                  data.MessageID,
			SessionID:           sessionID,
			SenderParticipantID: c.self.ParticipantID,
			Text:                outcome.FilteredText,
			CreatedAt:           time.UnixMilli(data.SentAt),
			IsOwn:               true,
		})
	}
	return nil
}

// ReportUser reports the current partner and ends the session. Report
// submission is best-effort; session termination proceeds regardless.
func (c *Controller) ReportUser(ctx context.Context, reason model.ReportReason, description string) error {
	if !model.ValidReportReason(reason) {
		return apperrors.InvalidInput("reason", string(reason))
	}

	c.mu.Lock()
	partner := c.partner
	roomID := c.roomID
	sessionID := c.sessionID
	c.mu.Unlock()

	if !c.inSession() || partner == nil {
		return apperrors.NoActiveSession()
	}

	if err := c.checkLimit(ctx, model.ActionReport, "report"); err != nil {
		return err
	}
	c.deps.Limiter.Record(ctx, c.self.UserID, model.ActionReport)

	if sessionID == "" {
		sessionID = c.lookupSessionID(ctx, roomID)
	}

	params := model.CreateReportParams{
		ReporterID:     c.self.UserID,
		ReportedUserID: partner.UserID,
		Reason:         reason,
	}
	if description != "" {
		params.Description = &description
	}
	if sessionID != "" {
		params.SessionID = &sessionID
	}
	if _, err := c.deps.Reports.Submit(ctx, params); err != nil {
		log.Error().Err(err).
			Str("reporterId", c.self.UserID).
			Msg("report submission failed, ending session anyway")
	}

	c.deps.Filter.RecordSessionBehavior(ctx, c.self.UserID, "report")

	// The reported side learns through a dedicated envelope so its session
	// ends with the reported reason, not partner-left.
	env := signaling.Envelope{Type: signaling.TypeReport, To: partner.ParticipantID}
	if err := c.deps.Channel.Send(ctx, env); err != nil {
		log.Warn().Err(err).Msg("failed to notify reported partner")
	}

	c.endSession(ctx, model.EndReasonReported, endOpts{persist: true})
	return nil
}

// ToggleVideo flips the local camera track and broadcasts the new state.
func (c *Controller) ToggleVideo(ctx context.Context, enabled bool) error {
	return c.toggleTrack(ctx, rtc.TrackVideo, enabled)
}

// ToggleAudio flips the local microphone track and broadcasts the new state.
func (c *Controller) ToggleAudio(ctx context.Context, enabled bool) error {
	return c.toggleTrack(ctx, rtc.TrackAudio, enabled)
}

// StartScreenShare switches the outgoing video to a screen capture.
func (c *Controller) StartScreenShare(ctx context.Context) error {
	if !c.inSession() {
		return apperrors.NoActiveSession()
	}
	if err := c.deps.Peers.StartScreenShare(ctx); err != nil {
		if errors.Is(err, rtc.ErrPermissionDenied) {
			return apperrors.MediaPermissionDenied()
		}
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to start screen share", err)
	}

	c.mu.Lock()
	c.self.ScreenShare = true
	self := c.self
	c.mu.Unlock()

	c.publishParticipantUpdate(ctx, self)
	return nil
}

// StopScreenShare restores the camera as the outgoing video source.
func (c *Controller) StopScreenShare(ctx context.Context) error {
	if err := c.deps.Peers.StopScreenShare(ctx); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to stop screen share", err)
	}

	c.mu.Lock()
	c.self.ScreenShare = false
	self := c.self
	inSession := c.state == StateConnecting || c.state == StateConnected || c.state == StateReconnecting
	c.mu.Unlock()

	if inSession {
		c.publishParticipantUpdate(ctx, self)
	}
	return nil
}

// HostCall creates a community group call with this participant as host.
func (c *Controller) HostCall(ctx context.Context, communityID string) error {
	return c.enterGroupCall(ctx, func(ctx context.Context) (*model.Session, error) {
		return c.deps.Sessions.CreateGroupCall(ctx, communityID, c.self)
	})
}

// JoinCall joins an existing community group call.
func (c *Controller) JoinCall(ctx context.Context, callID string) error {
	return c.enterGroupCall(ctx, func(ctx context.Context) (*model.Session, error) {
		return c.deps.Sessions.JoinGroupCall(ctx, callID, c.self)
	})
}

// Close ends any activity and disconnects from signaling. Used when the
// client's transport goes away.
func (c *Controller) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.EndChat(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to end chat on close")
	}
	c.deps.Channel.Disconnect()
}

func (c *Controller) enterGroupCall(ctx context.Context, enter func(ctx context.Context) (*model.Session, error)) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		busy := busyError(c.state)
		c.mu.Unlock()
		return busy
	}
	c.state = StateConnecting
	events := c.events
	c.mu.Unlock()

	fail := func(err error) error {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	if verdict := c.deps.Filter.CanUserStartSession(ctx, c.self.UserID); !verdict.Allowed {
		return fail(apperrors.AccountRestricted(verdict.Reason))
	}

	if err := c.checkLimit(ctx, model.ActionConnect, "connect"); err != nil {
		return fail(err)
	}

	if err := c.ensureMedia(ctx); err != nil {
		return fail(err)
	}

	session, err := enter(ctx)
	if err != nil {
		return fail(err)
	}

	if err := c.deps.Channel.Connect(ctx); err != nil {
		return fail(apperrors.SignalingDisconnected(err))
	}
	if err := c.deps.Channel.JoinGroup(ctx, session.RoomID, c.self); err != nil {
		return fail(apperrors.SignalingDisconnected(err))
	}

	c.deps.Limiter.Record(ctx, c.self.UserID, model.ActionConnect)

	c.mu.Lock()
	c.mode = model.ModeGroupCall
	c.sessionID = session.ID
	c.roomID = session.RoomID
	media := c.media
	c.mu.Unlock()

	if media != nil {
		if err := c.deps.Peers.AttachLocalMedia(media); err != nil {
			log.Error().Err(err).Msg("failed to attach local media")
		}
	}

	events.stateChange(StateConnecting)
	return nil
}

func (c *Controller) toggleTrack(ctx context.Context, kind rtc.TrackKind, enabled bool) error {
	c.mu.Lock()
	media := c.media
	c.mu.Unlock()
	// No local stream yet: nothing to flip and nobody to tell.
	if media == nil {
		return nil
	}

	media.SetEnabled(kind, enabled)

	c.mu.Lock()
	switch kind {
	case rtc.TrackVideo:
		c.self.VideoEnabled = enabled
	case rtc.TrackAudio:
		c.self.AudioEnabled = enabled
	}
	self := c.self
	inSession := c.state == StateConnecting || c.state == StateConnected || c.state == StateReconnecting
	c.mu.Unlock()

	if inSession {
		c.publishParticipantUpdate(ctx, self)
	}
	return nil
}

// busyError names the precondition that actually failed: searching and being
// in a session are different things to recover from.
func busyError(state State) error {
	if state == StateSearching {
		return apperrors.AlreadySearching()
	}
	return apperrors.AlreadyInSession()
}

func (c *Controller) checkLimit(ctx context.Context, action model.ActionKind, label string) error {
	d := c.deps.Limiter.Check(ctx, c.self.UserID, action)
	if d.Allowed {
		return nil
	}

	metrics.RateLimitRejections.WithLabelValues(string(action)).Inc()
	audit.Log(ctx, audit.Event{
		Type:   audit.EventRateLimitExceed,
		UserID: c.self.UserID,
		Details: map[string]interface{}{
			"action": string(action),
		},
	})

	if d.Cooldown {
		return apperrors.SessionCooldown(d.RetryAfterSeconds)
	}
	return apperrors.RateLimited(label, d.RetryAfterSeconds)
}

func (c *Controller) ensureMedia(ctx context.Context) error {
	c.mu.Lock()
	media := c.media
	c.mu.Unlock()
	if media != nil {
		return nil
	}

	media, err := c.deps.Peers.AcquireMedia(ctx, rtc.DefaultConstraints)
	if err != nil {
		if errors.Is(err, rtc.ErrPermissionDenied) {
			return apperrors.MediaPermissionDenied()
		}
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to acquire media", err)
	}

	c.mu.Lock()
	c.media = media
	c.self.VideoEnabled = true
	c.self.AudioEnabled = true
	c.mu.Unlock()
	return nil
}

func (c *Controller) beginSearch() {
	searchCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.searchCancel != nil {
		c.searchCancel()
	}
	c.searchCancel = cancel
	c.mu.Unlock()

	go c.runSearch(searchCtx)
}

func (c *Controller) cancelSearch() {
	c.mu.Lock()
	cancel := c.searchCancel
	c.searchCancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) runSearch(ctx context.Context) {
	err := c.retry.run(ctx, func(ctx context.Context) error {
		c.mu.Lock()
		self, prefs := c.self, c.prefs
		c.mu.Unlock()
		return c.deps.Channel.FindRandomPartner(ctx, self, prefs)
	})
	if err == nil || ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	if c.state != StateSearching {
		c.mu.Unlock()
		return
	}
	c.state = StateDisconnected
	c.searchCancel = nil
	events := c.events
	c.mu.Unlock()

	events.emitError(apperrors.SearchFailed(err))
	events.stateChange(StateDisconnected)
}

func (c *Controller) inSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnecting || c.state == StateConnected || c.state == StateReconnecting
}

// lookupSessionID resolves the session row backing the current room. Pair
// session rows are created by the match wiring, so the id arrives lazily.
func (c *Controller) lookupSessionID(ctx context.Context, roomID string) string {
	if roomID == "" {
		return ""
	}

	session, err := c.deps.Sessions.FindByRoomID(ctx, roomID)
	if err != nil || session == nil {
		return ""
	}

	c.mu.Lock()
	if c.roomID == roomID {
		c.sessionID = session.ID
	}
	c.mu.Unlock()
	return session.ID
}

type endOpts struct {
	notifyPartner bool
	persist       bool
	keepMedia     bool
}

// endSession moves to disconnected and tears the session down: peer
// connection, media, room subscription, persistence. Safe to call from any
// state; a second call is a no-op.
func (c *Controller) endSession(ctx context.Context, reason model.EndReason, opts endOpts) {
	c.mu.Lock()
	if c.state == StateDisconnected || c.state == StateSearching {
		c.mu.Unlock()
		return
	}
	c.state = StateDisconnected
	mode := c.mode
	roomID := c.roomID
	sessionID := c.sessionID
	partner := c.partner
	media := c.media
	events := c.events

	c.mode = ""
	c.roomID = ""
	c.sessionID = ""
	c.partner = nil
	c.unread = 0
	if !opts.keepMedia {
		c.media = nil
	}
	c.mu.Unlock()

	if opts.notifyPartner && partner != nil {
		env := signaling.Envelope{Type: signaling.TypePartnerLeft, To: partner.ParticipantID}
		if err := c.deps.Channel.Send(ctx, env); err != nil {
			log.Warn().Err(err).Msg("failed to notify partner")
		}
	}

	c.deps.Peers.Close()
	if !opts.keepMedia && media != nil {
		media.Release()
	}
	if roomID != "" {
		if err := c.deps.Channel.LeaveGroup(ctx, roomID); err != nil {
			log.Warn().Err(err).Str("roomId", roomID).Msg("failed to leave room")
		}
	}

	if opts.persist {
		if sessionID == "" && roomID != "" {
			if session, err := c.deps.Sessions.FindByRoomID(ctx, roomID); err == nil && session != nil {
				sessionID = session.ID
			}
		}
		if sessionID != "" {
			var err error
			if mode == model.ModeGroupCall {
				err = c.deps.Sessions.LeaveGroupCall(ctx, sessionID, c.self.ParticipantID)
			} else {
				err = c.deps.Sessions.End(ctx, sessionID, reason)
			}
			if err != nil {
				log.Error().Err(err).Str("sessionId", sessionID).Msg("failed to persist session end")
			}
		}
	}

	events.sessionEnded(reason)
	events.stateChange(StateDisconnected)
}

func (c *Controller) publishParticipantUpdate(ctx context.Context, self model.Participant) {
	env, err := signaling.NewEnvelope(signaling.TypeParticipantUpdate, "", "", self)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode participant update")
		return
	}
	if err := c.deps.Channel.Send(ctx, env); err != nil {
		log.Warn().Err(err).Msg("failed to publish participant update")
	}
}

func (c *Controller) relaySignal(envType string, payload json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	env := signaling.Envelope{Type: envType, Data: payload}
	if err := c.deps.Channel.Send(ctx, env); err != nil {
		log.Warn().Err(err).Str("type", envType).Msg("failed to relay signal")
	}
}

func (c *Controller) handleMatchFound(roomID string, partner model.Participant) {
	c.mu.Lock()
	if c.state != StateSearching {
		c.mu.Unlock()
		return
	}
	cancel := c.searchCancel
	c.searchCancel = nil
	c.state = StateConnecting
	c.mode = model.ModeRandomPair
	c.roomID = roomID
	c.sessionID = ""
	p := partner
	c.partner = &p
	media := c.media
	events := c.events
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if media != nil {
		if err := c.deps.Peers.AttachLocalMedia(media); err != nil {
			log.Error().Err(err).Msg("failed to attach local media")
		}
	}

	events.stateChange(StateConnecting)
	if events.OnPartnerJoined != nil {
		events.OnPartnerJoined(partner)
	}
}

func (c *Controller) handleUserJoined(p model.Participant) {
	c.mu.Lock()
	mode := c.mode
	events := c.events
	c.mu.Unlock()

	if mode == model.ModeGroupCall && events.OnPartnerJoined != nil {
		events.OnPartnerJoined(p)
	}
}

func (c *Controller) handleUserLeft(participantID string) {
	c.mu.Lock()
	mode := c.mode
	events := c.events
	c.mu.Unlock()

	if mode == model.ModeGroupCall {
		if events.OnParticipantLeft != nil {
			events.OnParticipantLeft(participantID)
		}
		return
	}

	// Pair mode: the partner already ended the session row; tear down the
	// local side only.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.endSession(ctx, model.EndReasonPartnerLeft, endOpts{})
}

func (c *Controller) handleQueueStatus(status model.QueueStatus) {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()

	if events.OnQueueStatus != nil {
		events.OnQueueStatus(status)
	}
}

func (c *Controller) handleSignalingLost(cause error) {
	c.mu.Lock()
	state := c.state
	events := c.events
	c.mu.Unlock()

	if state == StateDisconnected {
		return
	}

	if state == StateSearching {
		c.cancelSearch()
		c.mu.Lock()
		c.state = StateDisconnected
		media := c.media
		c.media = nil
		c.mu.Unlock()
		if media != nil {
			media.Release()
		}
		events.emitError(apperrors.SignalingDisconnected(cause))
		events.stateChange(StateDisconnected)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// endSession emits the disconnected transition itself.
	c.endSession(ctx, model.EndReasonConnectionLost, endOpts{persist: true})
	events.emitError(apperrors.SignalingDisconnected(cause))
}

func (c *Controller) handlePeerState(state rtc.ConnectionState) {
	quality := rtc.QualityFromState(state)

	c.mu.Lock()
	c.self.Quality = quality
	current := c.state
	events := c.events

	var next State
	switch state {
	case rtc.StateConnected, rtc.StateCompleted:
		if current == StateConnecting || current == StateReconnecting {
			next = StateConnected
		}
	case rtc.StateDisconnected:
		if current == StateConnected {
			next = StateReconnecting
		}
	}
	if next != "" {
		c.state = next
	}
	c.mu.Unlock()

	if events.OnQualityChange != nil {
		events.OnQualityChange(quality)
	}
	if next != "" {
		events.stateChange(next)
	}

	if state == rtc.StateFailed && (current == StateConnected || current == StateReconnecting || current == StateConnecting) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.endSession(ctx, model.EndReasonConnectionLost, endOpts{persist: true})
	}
}

func (c *Controller) handleRemoteStream(participantID string) {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()

	if events.OnRemoteStream != nil {
		events.OnRemoteStream(participantID)
	}
}

func (c *Controller) handleEnvelope(env signaling.Envelope) {
	switch env.Type {
	case signaling.TypeChatMessage:
		c.handleChatMessage(env)

	case signaling.TypeOffer, signaling.TypeAnswer, signaling.TypeICECandidate:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.deps.Peers.HandleSignal(ctx, env.Type, env.Data); err != nil {
			log.Warn().Err(err).Str("type", env.Type).Msg("failed to handle signal")
		}

	case signaling.TypeParticipantUpdate:
		var p model.Participant
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Warn().Err(err).Msg("invalid participant update")
			return
		}
		c.mu.Lock()
		if c.partner != nil && c.partner.ParticipantID == p.ParticipantID {
			c.partner = &p
		}
		events := c.events
		c.mu.Unlock()
		if events.OnPartnerUpdated != nil {
			events.OnPartnerUpdated(p)
		}

	case signaling.TypeReport:
		// This side was reported: end locally, the reporter persisted the
		// session end.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.endSession(ctx, model.EndReasonReported, endOpts{})

	default:
		log.Debug().Str("type", env.Type).Msg("ignoring envelope")
	}
}

func (c *Controller) handleChatMessage(env signaling.Envelope) {
	var data signaling.ChatMessageData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Warn().Err(err).Msg("invalid chat message payload")
		return
	}

	c.mu.Lock()
	sessionID := c.sessionID
	chatOpen := c.chatOpen
	if !chatOpen {
		c.unread++
	}
	unread := c.unread
	events := c.events
	c.mu.Unlock()

	if events.OnMessage != nil {
		events.OnMessage(model.ChatMessage{
			ID:                  data.MessageID,
			SessionID:           sessionID,
			SenderParticipantID: env.From,
			Text:                data.Text,
			CreatedAt:           time.UnixMilli(data.SentAt),
			IsOwn:               false,
		})
	}
	if !chatOpen && events.OnUnreadCount != nil {
		events.OnUnreadCount(unread)
	}
}
