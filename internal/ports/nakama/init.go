package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	mod, err := newModule(ctx, env)
	if err != nil {
		logger.Error("InitModule: Failed to build module: %v", err)
		return err
	}

	if err := mod.registerRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameDeckDuel, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &matchHandler{mod: mod}, nil
	}); err != nil {
		return err
	}

	if err := initializer.RegisterShutdown(func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) {
		if err := mod.shutdown(ctx); err != nil {
			logger.Error("Shutdown: %v", err)
		}
	}); err != nil {
		return err
	}

	logger.Info("DeckDuel Go module loaded.")
	return nil
}
