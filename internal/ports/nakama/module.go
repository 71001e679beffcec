package nakama

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/rs/zerolog"

	"deckduel/internal/app"
	"deckduel/internal/app/invite"
	"deckduel/internal/catalog"
	"deckduel/internal/config"
	"deckduel/internal/logging"
	"deckduel/internal/ports"
	"deckduel/internal/storage/sqlite"
	"deckduel/internal/telemetry"
)

// gameArchive is the part of the archive store the RPCs read from.
type gameArchive interface {
	RecentGames(ctx context.Context, limit int) ([]ports.GameRecord, error)
}

// module holds everything the match handlers and RPCs share.
type module struct {
	cfg     *config.GameConfig
	manager *app.Manager
	invites *invite.Service
	archive gameArchive
	logger  zerolog.Logger

	cancel  context.CancelFunc
	closers []func(context.Context) error
}

// newModule builds the module from the runtime environment.
func newModule(ctx context.Context, env map[string]string) (*module, error) {
	cfg, err := config.LoadGameConfig(env[envConfigPath])
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, env); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	runCtx, cancel := context.WithCancel(context.Background())
	mod := &module{cfg: cfg, logger: logger, cancel: cancel}
	fail := func(err error) (*module, error) {
		_ = mod.shutdown(ctx)
		return nil, err
	}

	source, err := loadCatalog(runCtx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	if err := cfg.CheckCards(source.Current()); err != nil {
		return fail(err)
	}

	shutdownTracing, err := telemetry.Setup(ctx, "deckduel", cfg.OTLPEndpoint)
	if err != nil {
		return fail(fmt.Errorf("setup telemetry: %w", err))
	}
	mod.closers = append(mod.closers, shutdownTracing)

	mod.manager = app.NewManager(cfg, source, app.WithLogger(logger))
	mod.closers = append(mod.closers, mod.manager.Shutdown)
	mod.invites = invite.NewService(cfg.InviteSecret, cfg.InviteIssuer, cfg.InviteTTL())

	if cfg.ArchivePath != "" {
		store, err := sqlite.Open(cfg.ArchivePath)
		if err != nil {
			return fail(fmt.Errorf("open archive: %w", err))
		}
		mod.archive = store
		mod.manager.Subscribe(app.NewArchiver(store, logger))
		// Runs after the manager has drained its subscribers.
		mod.closers = append(mod.closers, func(context.Context) error { return store.Close() })
	}

	go mod.reapLoop(runCtx)
	return mod, nil
}

func loadCatalog(ctx context.Context, cfg *config.GameConfig, logger zerolog.Logger) (app.CatalogSource, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default()
	}
	if !cfg.WatchCatalog {
		return catalog.Load(cfg.CatalogPath)
	}
	w, err := catalog.NewWatcher(cfg.CatalogPath, logger)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("catalog watcher stopped")
		}
	}()
	return w, nil
}

// reapLoop drops finished sessions whose match never terminated.
func (m *module) reapLoop(ctx context.Context) {
	retention := m.cfg.FinishedRetention()
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(max(retention/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.manager.Reap(retention)
		}
	}
}

// shutdown ends all sessions and releases resources, in order.
func (m *module) shutdown(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	var errs []error
	for _, closeFn := range m.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	return id
}
