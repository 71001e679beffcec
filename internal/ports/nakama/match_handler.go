package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"slices"

	"github.com/heroiclabs/nakama-common/runtime"
	"golang.org/x/time/rate"

	"deckduel/internal/app"
	"deckduel/internal/domain"
)

// MatchState holds the per-match runtime state. Game state lives in the session
// manager under SessionID.
type MatchState struct {
	SessionID  string                      `json:"session_id"`
	Presences  map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	Limiters   map[string]*rate.Limiter    `json:"-"`
	EmptyTicks int                         `json:"empty_ticks"`
}

type matchHandler struct {
	mod *module
}

// matchSignal is the payload of MatchSignal calls.
type matchSignal struct {
	Op     string `json:"op"`
	Winner *int   `json:"winner,omitempty"`
}

// MatchInit creates the session backing the match. Params: "host" (user id,
// required) and "private" (bool).
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	host, _ := params["host"].(string)
	private, _ := params["private"].(bool)

	var opts []app.CreateOption
	if matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string); matchID != "" {
		opts = append(opts, app.WithSessionID(matchID))
	}
	if private {
		opts = append(opts, app.WithPrivate())
	}
	sessionID, err := mh.mod.manager.Create(ctx, host, opts...)
	if err != nil {
		logger.Error("MatchInit: Failed to create session for host %q: %v", host, err)
		return nil, 0, ""
	}

	state := &MatchState{
		SessionID: sessionID,
		Presences: make(map[string]runtime.Presence),
		Limiters:  make(map[string]*rate.Limiter),
	}
	info, err := mh.mod.manager.Get(sessionID)
	if err != nil {
		logger.Error("MatchInit: Session %s vanished: %v", sessionID, err)
		return nil, 0, ""
	}
	label, err := buildLabel(info)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	logger.Debug("MatchInit: Session %s created for host %s (private=%t).", sessionID, host, private)
	return state, mh.mod.cfg.TickRate, label
}

// MatchJoinAttempt seats a player, or adds a spectator when metadata has
// spectate=true. Private sessions need an invite token in metadata["invite"]
// from everyone but the host. Returning participants are let back in.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	identity := presence.GetUserId()
	info, err := mh.mod.manager.Get(matchState.SessionID)
	if err != nil {
		return state, false, err.Error()
	}
	if slices.Contains(info.Players, identity) || slices.Contains(info.Spectators, identity) {
		return state, true, ""
	}

	if info.Private && identity != info.Host {
		if _, err := mh.mod.invites.Verify(metadata["invite"], matchState.SessionID); err != nil {
			logger.Warn("MatchJoinAttempt: User %s rejected from private session %s: %v", identity, matchState.SessionID, err)
			return state, false, "invite required"
		}
	}

	if metadata["spectate"] == "true" {
		err = mh.mod.manager.AddSpectator(ctx, matchState.SessionID, identity)
	} else {
		_, err = mh.mod.manager.Join(ctx, matchState.SessionID, identity)
	}
	if err != nil {
		return state, false, err.Error()
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		matchState.Limiters[p.GetUserId()] = rate.NewLimiter(rate.Limit(mh.mod.cfg.ActionRatePerSecond), mh.mod.cfg.ActionBurst)
	}
	matchState.EmptyTicks = 0

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobby(matchState, dispatcher, logger)

	// Players joining or rejoining a running game get a full snapshot.
	for _, p := range presences {
		mh.sendResync(ctx, matchState, dispatcher, logger, p.GetUserId(), false)
	}
	return matchState
}

// MatchLeave frees lobby seats. Players of a running game keep their seat so they
// can reconnect.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		identity := p.GetUserId()
		delete(matchState.Presences, identity)
		delete(matchState.Limiters, identity)

		err := mh.mod.manager.Leave(ctx, matchState.SessionID, identity)
		switch {
		case err == nil:
			logger.Debug("MatchLeave: User %s left session %s.", identity, matchState.SessionID)
		case errors.Is(err, app.ErrAlreadyStarted):
			logger.Debug("MatchLeave: User %s disconnected from running session %s.", identity, matchState.SessionID)
		case errors.Is(err, app.ErrSessionNotFound):
		default:
			logger.Warn("MatchLeave: Failed to remove %s: %v", identity, err)
		}
	}

	if _, err := mh.mod.manager.Get(matchState.SessionID); errors.Is(err, app.ErrSessionNotFound) {
		logger.Info("MatchLeave: Terminating match, session %s is gone.", matchState.SessionID)
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobby(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	for _, msg := range messages {
		sender := msg.GetUserId()
		if lim, ok := matchState.Limiters[sender]; ok && !lim.Allow() {
			mh.sendError(matchState, dispatcher, logger, sender, "RATE_LIMITED", "too many messages")
			continue
		}
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, sender)
		case OpAction:
			mh.handleAction(ctx, matchState, dispatcher, logger, sender, msg.GetData())
		case OpResync:
			mh.sendResync(ctx, matchState, dispatcher, logger, sender, true)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if len(matchState.Presences) == 0 {
		matchState.EmptyTicks++
		if matchState.EmptyTicks >= mh.mod.cfg.EmptyTimeoutSeconds*mh.mod.cfg.TickRate {
			logger.Info("MatchLoop: Terminating empty match for session %s.", matchState.SessionID)
			mh.closeSession(ctx, matchState, dispatcher, logger)
			return nil
		}
	}
	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, sender string) {
	info, err := mh.mod.manager.Get(state.SessionID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, sender, errorCode(err), err.Error())
		return
	}
	if info.Host != sender {
		logger.Warn("StartGame: User %s tried to start session %s but is not host (%s)", sender, state.SessionID, info.Host)
		mh.sendError(state, dispatcher, logger, sender, "NOT_HOST", "only the host can start the game")
		return
	}

	res, err := mh.mod.manager.Start(ctx, state.SessionID)
	if err != nil {
		logger.Warn("StartGame: Cannot start session %s: %v", state.SessionID, err)
		mh.sendError(state, dispatcher, logger, sender, errorCode(err), err.Error())
		return
	}
	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastLobby(state, dispatcher, logger)
	mh.sendViews(state, dispatcher, logger, res.Views)
	logger.Info("StartGame: Session %s started with %d players.", state.SessionID, len(info.Players))
}

func (mh *matchHandler) handleAction(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, sender string, data []byte) {
	action, err := decodeAction(data)
	if err != nil {
		mh.sendError(state, dispatcher, logger, sender, errorCode(err), err.Error())
		return
	}

	res, err := mh.mod.manager.Dispatch(ctx, state.SessionID, sender, action)
	if err != nil {
		if errors.Is(err, domain.ErrInvariant) {
			logger.Error("handleAction: Session %s failed: %v", state.SessionID, err)
			if views, vErr := mh.mod.manager.Views(ctx, state.SessionID); vErr == nil {
				mh.sendViews(state, dispatcher, logger, views)
			}
			mh.updateLabel(state, dispatcher, logger)
			mh.broadcastLobby(state, dispatcher, logger)
		} else {
			logger.Debug("handleAction: User %s %s rejected: %v", sender, action.Kind(), err)
		}
		mh.sendError(state, dispatcher, logger, sender, errorCode(err), err.Error())
		return
	}

	mh.sendViews(state, dispatcher, logger, res.Views)
	if res.Finished {
		mh.updateLabel(state, dispatcher, logger)
		mh.broadcastLobby(state, dispatcher, logger)
	}
}

// sendResync sends a full snapshot to one participant. Before the game starts
// there is nothing to send; reportErrors controls whether that is an error.
func (mh *matchHandler) sendResync(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, identity string, reportErrors bool) {
	snap, err := mh.mod.manager.View(ctx, state.SessionID, identity)
	if err != nil {
		if reportErrors {
			mh.sendError(state, dispatcher, logger, identity, errorCode(err), err.Error())
		}
		return
	}
	mh.send(state, dispatcher, logger, identity, OpView, viewMessage{Seat: snap.Viewer, Snapshot: &snap})
}

func (mh *matchHandler) sendViews(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, views []app.RecipientView) {
	for _, rv := range views {
		mh.send(state, dispatcher, logger, rv.Identity, OpView, viewMessage{Seat: rv.Seat, Snapshot: rv.Snapshot, Delta: rv.Delta})
	}
}

// sendError sends an error message to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, code, message string) {
	mh.send(state, dispatcher, logger, userID, OpError, errorMessage{Code: code, Message: message})
}

func (mh *matchHandler) send(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, payload any) {
	presence, ok := state.Presences[userID]
	if !ok {
		logger.Debug("Cannot send opcode %d to %s: Presence not found", opCode, userID)
		return
	}
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal opcode %d payload: %v", opCode, err)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Warn("Failed to send opcode %d to %s: %v", opCode, userID, err)
	}
}

func (mh *matchHandler) broadcastLobby(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	info, err := mh.mod.manager.Get(state.SessionID)
	if err != nil {
		return
	}
	bytes, err := json.Marshal(lobbyFromInfo(info))
	if err != nil {
		logger.Error("Failed to marshal lobby: %v", err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpLobby, bytes, nil, nil, true); err != nil {
		logger.Warn("Failed to broadcast lobby: %v", err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	info, err := mh.mod.manager.Get(state.SessionID)
	if err != nil {
		return
	}
	label, err := buildLabel(info)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

// closeSession ends the session, sends the final views and drops it.
func (mh *matchHandler) closeSession(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := mh.mod.manager.End(ctx, state.SessionID, nil); err != nil && !errors.Is(err, app.ErrSessionNotFound) {
		logger.Warn("Failed to end session %s: %v", state.SessionID, err)
	}
	if views, err := mh.mod.manager.Views(ctx, state.SessionID); err == nil {
		mh.sendViews(state, dispatcher, logger, views)
	}
	mh.mod.manager.Remove(ctx, state.SessionID)
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	logger.Debug("MatchTerminate: Match for session %s terminated (grace %ds)", matchState.SessionID, graceSeconds)
	mh.closeSession(ctx, matchState, dispatcher, logger)
	return state
}

// MatchSignal handles {"op":"end","winner":N}, ending the session from outside
// the rules. winner may be omitted.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, "state not found"
	}
	var sig matchSignal
	if err := json.Unmarshal([]byte(data), &sig); err != nil {
		return state, "invalid signal"
	}
	if sig.Op != "end" {
		return state, "unknown signal"
	}
	if err := mh.mod.manager.End(ctx, matchState.SessionID, sig.Winner); err != nil {
		logger.Warn("MatchSignal: Failed to end session %s: %v", matchState.SessionID, err)
		return state, err.Error()
	}
	if views, err := mh.mod.manager.Views(ctx, matchState.SessionID); err == nil {
		mh.sendViews(matchState, dispatcher, logger, views)
	}
	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobby(matchState, dispatcher, logger)
	return state, "ok"
}
