package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

func (m *module) rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	user := userID(ctx)
	if user == "" {
		return "", runtime.NewError("authentication required", codeUnauthenticated)
	}

	limit := 10
	authoritative := true
	minSize := 0
	maxSize := m.cfg.MaxPlayers - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, quickMatchQuery())
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", runtime.NewError("failed to list games", codeInternal)
	}
	if len(matches) > 0 {
		return encodeResponse(logger, QuickMatchResponse{MatchID: matches[0].MatchId, IsNew: false})
	}

	// Create new match; the caller hosts it and is seated when they join.
	matchID, err := nk.MatchCreate(ctx, MatchNameDeckDuel, map[string]interface{}{"host": user})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", runtime.NewError("failed to create game", codeInternal)
	}
	return encodeResponse(logger, QuickMatchResponse{MatchID: matchID, IsNew: true})
}
