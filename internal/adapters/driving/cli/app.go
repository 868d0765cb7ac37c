package cli

import (
	"context"
	"fmt"

	configfile "github.com/repokeeper/repokeeper/internal/adapters/driven/config/file"
	"github.com/repokeeper/repokeeper/internal/adapters/driven/provider/github"
	"github.com/repokeeper/repokeeper/internal/adapters/driven/storage/sqlite"
	gitvcs "github.com/repokeeper/repokeeper/internal/adapters/driven/vcs/git"
	"github.com/repokeeper/repokeeper/internal/core/ports/driven"
	"github.com/repokeeper/repokeeper/internal/core/services"
)

// app holds the wired engine and its resources for one command invocation.
type app struct {
	cfg      *configfile.Config
	store    *sqlite.Store
	provider *github.Provider
	engine   *services.Engine
}

// newApp loads the configuration and wires the full engine: storage,
// provider, detector, merger, watcher and one git pipeline per working tree.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := configfile.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	detector := services.NewDetector(
		provider,
		store.CacheStore(),
		store.RepositoryStore(),
		cfg.DomainRules(),
		cfg.DefaultCategory,
		cfg.Sync.CacheTTL(),
		0,
	)
	merger := services.NewMerger(cfg.Documents.StartMarker, cfg.Documents.EndMarker)

	categories := cfg.DomainCategories()
	paths := make([]string, 0, len(categories))
	vcs := make(map[string]driven.VersionControl, len(categories))
	for i := range categories {
		paths = append(paths, categories[i].DocumentPath)
		tree := categories[i].WorkTree
		if _, ok := vcs[tree]; !ok {
			vcs[tree] = gitvcs.NewPipeline(tree)
		}
	}

	watcher, err := services.NewPersistentWatcher(ctx, paths, cfg.Sync.PollInterval(), cfg.Sync.Debounce(), store.FileStateStore())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	engine := services.NewEngine(
		detector,
		merger,
		watcher,
		store.RepositoryStore(),
		store.CacheStore(),
		categories,
		vcs,
		cfg.Sync.MonitorInterval(),
		cfg.Sync.AppendMissing(),
	)

	return &app{
		cfg:      cfg,
		store:    store,
		provider: provider,
		engine:   engine,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() error {
	return a.store.Close()
}

func newProvider(ctx context.Context, cfg *configfile.Config) (*github.Provider, error) {
	token, err := cfg.Provider.Token()
	if err != nil {
		return nil, err
	}
	return github.NewProvider(ctx, cfg.Provider.Account, token), nil
}
