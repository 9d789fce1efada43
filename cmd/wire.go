package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bnema/roland/internal/adapters/keys"
	consolekeys "github.com/bnema/roland/internal/adapters/keys/console"
	"github.com/bnema/roland/internal/adapters/keys/keybd"
	"github.com/bnema/roland/internal/adapters/keys/xdotool"
	"github.com/bnema/roland/internal/adapters/llm"
	catalogrender "github.com/bnema/roland/internal/adapters/render/catalog"
	boltrepo "github.com/bnema/roland/internal/adapters/repo/bolt"
	sqliterepo "github.com/bnema/roland/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/roland/internal/adapters/repo/toml"
	"github.com/bnema/roland/internal/adapters/speech/chain"
	consolespeech "github.com/bnema/roland/internal/adapters/speech/console"
	"github.com/bnema/roland/internal/adapters/speech/espeak"
	"github.com/bnema/roland/internal/application"
	"github.com/bnema/roland/internal/config"
	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/keybinds"
	"github.com/bnema/roland/internal/logging"
	"github.com/bnema/roland/internal/ports"
	"go.uber.org/zap"
)

// app holds what every command needs. The macro repository is opened on
// first use: bolt takes an exclusive file lock, and `roland send` must not
// fight a running listener for it.
type app struct {
	cfg            *config.Config
	logger         *zap.Logger
	keybinds       []domain.KeybindAction
	catalogRender  func(catalogrender.Catalog, catalogrender.RenderOptions) (string, error)
	now            func() time.Time
	openRepository func(*config.Config) (ports.MacroRepository, error)

	mu        sync.Mutex
	repo      ports.MacroRepository
	store     *application.MacroStore
	keys      ports.KeyInjector
	closeOnce sync.Once
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := config.Load(config.Options{Home: homeDir, EnvFile: os.Getenv("ROLAND_ENV_FILE")})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	bindings, err := keybinds.Load(cfg.KeybindsPath, cfg.Keys.MaxHold)
	if err != nil {
		return nil, fmt.Errorf("wire keybinds: %w", err)
	}

	return &app{
		cfg:            cfg,
		logger:         logger,
		keybinds:       bindings,
		catalogRender:  catalogrender.Render,
		now:            time.Now,
		openRepository: openRepository,
	}, nil
}

func openRepository(cfg *config.Config) (ports.MacroRepository, error) {
	switch cfg.Macros.Backend {
	case config.BackendSQLite:
		return sqliterepo.NewRepository(cfg.Macros.Path)
	case config.BackendBolt:
		return boltrepo.NewRepository(cfg.Macros.Path)
	default:
		return tomlrepo.NewRepository(cfg.Viper())
	}
}

// macroStore opens the repository and loads the store once per process.
func (a *app) macroStore(ctx context.Context) (*application.MacroStore, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store != nil {
		return a.store, nil
	}

	repo, err := a.openRepository(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("wire macro repository: %w", err)
	}

	store, err := application.NewMacroStore(repo, a.keybinds, application.MacroStoreOptions{
		Limit:   a.cfg.Macros.Limit,
		MaxHold: a.cfg.Keys.MaxHold,
		Logger:  a.logger.Named("store"),
	})
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("wire macro store: %w", err)
	}
	if err := store.Load(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("load macros: %w", err)
	}

	a.repo = repo
	a.store = store
	return store, nil
}

// pipeline wires the full utterance path. Console adapters write to out.
func (a *app) pipeline(ctx context.Context, out io.Writer) (*application.Pipeline, *application.MacroStore, error) {
	store, err := a.macroStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	resolver := application.NewResolver(store, application.ResolverOptions{
		Threshold: a.cfg.Resolver.Threshold,
		Epsilon:   a.cfg.Resolver.Epsilon,
		WakeWord:  a.cfg.WakeWord,
	})
	tracker := application.NewContextTracker(a.cfg.ContextTTL, ports.SystemClock{})
	dispatcher := application.NewDispatcher(store, resolver, tracker, ports.SystemClock{}, a.logger.Named("dispatch"), application.DispatcherOptions{
		DialogTimeout: a.cfg.DialogTimeout,
		MaxHold:       a.cfg.Keys.MaxHold,
	})

	suggester, err := a.suggester()
	if err != nil {
		return nil, nil, err
	}
	injector, err := a.injector(ctx, out)
	if err != nil {
		return nil, nil, err
	}
	speaker, err := a.speaker(out)
	if err != nil {
		return nil, nil, err
	}

	pipeline := application.NewPipeline(dispatcher, suggester, injector, speaker, a.logger.Named("pipeline"), application.PipelineOptions{
		SuggestTimeout: a.cfg.LLM.Timeout,
	})

	return pipeline, store, nil
}

func (a *app) suggester() (ports.Suggester, error) {
	if !a.cfg.LLM.Enabled {
		return nil, nil
	}

	suggester, err := llm.NewSuggester(llm.Options{
		BaseURL: a.cfg.LLM.BaseURL,
		APIKey:  a.cfg.LLM.APIKey,
		Model:   a.cfg.LLM.Model,
		Timeout: a.cfg.LLM.Timeout,
		Logger:  a.logger.Named("llm"),
	})
	if err != nil {
		return nil, fmt.Errorf("wire language model: %w", err)
	}
	return suggester, nil
}

// injector opens the key backend once per process. The uinput keyboard takes
// a couple of seconds to appear, so listen opens it as its own startup step.
func (a *app) injector(ctx context.Context, out io.Writer) (ports.KeyInjector, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.keys != nil {
		return a.keys, nil
	}

	timing := keys.Timing{Press: a.cfg.Keys.PressDuration, Hold: a.cfg.Keys.HoldDuration}

	var injector ports.KeyInjector
	switch a.cfg.Keys.Backend {
	case config.KeysConsole:
		injector = consolekeys.NewInjector(out)
	case config.KeysKeybd:
		opened, err := keybd.NewInjector(ctx, timing)
		if err != nil {
			return nil, fmt.Errorf("wire key injector: %w", err)
		}
		injector = opened
	default:
		injector = xdotool.NewInjector(xdotool.Options{Timing: timing, FocusWindow: a.cfg.Keys.FocusWindow})
	}

	a.keys = injector
	return injector, nil
}

func (a *app) speaker(out io.Writer) (ports.Speaker, error) {
	console := consolespeech.NewSpeaker(out, "Roland: ")
	if a.cfg.Speech.Backend == config.SpeechConsole {
		return console, nil
	}

	speaker, err := chain.NewSpeaker(espeak.NewSpeaker(a.cfg.Speech.Voice), console)
	if err != nil {
		return nil, fmt.Errorf("wire speaker: %w", err)
	}
	return speaker, nil
}

func (a *app) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		if a.repo != nil {
			err = a.repo.Close()
		}
		_ = a.logger.Sync()
	})
	return err
}
