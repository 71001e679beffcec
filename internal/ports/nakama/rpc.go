package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"deckduel/internal/app"
	"deckduel/internal/app/invite"
)

// CreateGameRequest is the optional payload of create_game.
type CreateGameRequest struct {
	Private bool `json:"private"`
}

// CreateGameResponse returns the new match and, for private games, an invite the
// host can hand out.
type CreateGameResponse struct {
	MatchID string `json:"match_id"`
	Invite  string `json:"invite,omitempty"`
}

type InviteRequest struct {
	MatchID string `json:"match_id"`
}

type InviteResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// GameSummary describes one session in list_games.
type GameSummary struct {
	MatchID    string        `json:"match_id"`
	Lifecycle  app.Lifecycle `json:"lifecycle"`
	Host       string        `json:"host"`
	Players    int           `json:"players"`
	Spectators int           `json:"spectators"`
	OpenSeats  int           `json:"open_seats"`
	Turn       int           `json:"turn"`
}

type RecentGamesRequest struct {
	Limit int `json:"limit"`
}

// ArchivedGame is one finished game in recent_games.
type ArchivedGame struct {
	MatchID    string   `json:"match_id"`
	Players    []string `json:"players"`
	WinnerID   string   `json:"winner_id,omitempty"`
	Failure    string   `json:"failure,omitempty"`
	Turns      int      `json:"turns"`
	FinishedAt int64    `json:"finished_at"`
}

// registerRPCs registers Nakama RPC endpoints.
func (m *module) registerRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcCreateGame:  m.rpcCreateGame,
		RpcQuickMatch:  m.rpcQuickMatch,
		RpcInvite:      m.rpcInvite,
		RpcListGames:   m.rpcListGames,
		RpcRecentGames: m.rpcRecentGames,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

func decodePayload(payload string, dst any) error {
	if payload == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return runtime.NewError("invalid payload", codeInvalidArgument)
	}
	return nil
}

func encodeResponse(logger runtime.Logger, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		return "", runtime.NewError("internal error", codeInternal)
	}
	return string(b), nil
}

func (m *module) rpcCreateGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	user := userID(ctx)
	if user == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}
	var req CreateGameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.Private && m.cfg.InviteSecret == "" {
		return "", runtime.NewError("private games are disabled", codeFailedPrecondition)
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameDeckDuel, map[string]interface{}{"host": user, "private": req.Private})
	if err != nil {
		logger.Error("RpcCreateGame [User:%s]: Failed to create match: %v", user, err)
		return "", runtime.NewError("failed to create game", codeInternal)
	}
	resp := CreateGameResponse{MatchID: matchID}
	if req.Private {
		if resp.Invite, err = m.invites.Issue(matchID, user); err != nil {
			logger.Error("RpcCreateGame [User:%s]: Failed to issue invite: %v", user, err)
			return "", runtime.NewError("failed to issue invite", codeInternal)
		}
	}
	logger.Info("RpcCreateGame [User:%s]: Created match %s (private=%t)", user, matchID, req.Private)
	return encodeResponse(logger, resp)
}

// rpcInvite issues a new invite for a private game. Only the host may call it.
func (m *module) rpcInvite(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	user := userID(ctx)
	if user == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}
	var req InviteRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	info, err := m.manager.Get(req.MatchID)
	if err != nil {
		return "", runtime.NewError("game not found", codeNotFound)
	}
	if info.Host != user {
		return "", runtime.NewError("only the host can invite", codePermissionDenied)
	}
	token, err := m.invites.Issue(req.MatchID, user)
	if errors.Is(err, invite.ErrNotConfigured) {
		return "", runtime.NewError("invites are disabled", codeFailedPrecondition)
	}
	if err != nil {
		logger.Error("RpcInvite [User:%s]: Failed to issue invite: %v", user, err)
		return "", runtime.NewError("failed to issue invite", codeInternal)
	}
	return encodeResponse(logger, InviteResponse{Token: token, ExpiresAt: time.Now().Add(m.cfg.InviteTTL()).Unix()})
}

func (m *module) rpcListGames(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return encodeResponse(logger, summarize(m.manager.List(false)))
}

func summarize(infos []app.SessionInfo) []GameSummary {
	out := make([]GameSummary, 0, len(infos))
	for _, info := range infos {
		out = append(out, GameSummary{
			MatchID:    info.ID,
			Lifecycle:  info.Lifecycle,
			Host:       info.Host,
			Players:    len(info.Players),
			Spectators: len(info.Spectators),
			OpenSeats:  info.OpenSeats,
			Turn:       info.Turn,
		})
	}
	return out
}

func (m *module) rpcRecentGames(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	if m.archive == nil {
		return "", runtime.NewError("game archive is disabled", codeUnavailable)
	}
	var req RecentGamesRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	records, err := m.archive.RecentGames(ctx, req.Limit)
	if err != nil {
		logger.Error("RpcRecentGames: %v", err)
		return "", runtime.NewError("failed to read archive", codeInternal)
	}
	out := make([]ArchivedGame, 0, len(records))
	for _, rec := range records {
		out = append(out, ArchivedGame{
			MatchID:    rec.SessionID,
			Players:    rec.Players,
			WinnerID:   rec.WinnerID,
			Failure:    rec.Failure,
			Turns:      rec.Turns,
			FinishedAt: rec.FinishedAt.Unix(),
		})
	}
	return encodeResponse(logger, out)
}
