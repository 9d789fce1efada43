package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultSuggestTimeout = 3 * time.Second

type PipelineOptions struct {
	SuggestTimeout time.Duration
}

// Pipeline runs one utterance end to end: suggestion, dispatch, then key
// injection and spoken confirmation side by side.
type Pipeline struct {
	dispatcher     *Dispatcher
	suggester      ports.Suggester
	injector       ports.KeyInjector
	speaker        ports.Speaker
	logger         *zap.Logger
	suggestTimeout time.Duration

	mu sync.Mutex
}

func NewPipeline(dispatcher *Dispatcher, suggester ports.Suggester, injector ports.KeyInjector, speaker ports.Speaker, logger *zap.Logger, opts PipelineOptions) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SuggestTimeout <= 0 {
		opts.SuggestTimeout = DefaultSuggestTimeout
	}

	return &Pipeline{
		dispatcher:     dispatcher,
		suggester:      suggester,
		injector:       injector,
		speaker:        speaker,
		logger:         logger,
		suggestTimeout: opts.SuggestTimeout,
	}
}

// Process dispatches utterances one at a time. The returned error is set when
// the key injector fails or dispatch hit a hard failure; speech problems are
// only logged.
func (p *Pipeline) Process(ctx context.Context, session, transcript string) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var suggestion *domain.Suggestion
	if p.dispatcher.DialogStage(session) == "" {
		suggestion = p.suggest(ctx, transcript)
	}

	result := p.dispatcher.Handle(ctx, Request{Session: session, Transcript: transcript, Suggestion: suggestion})

	var group errgroup.Group
	if result.Action != nil && p.injector != nil {
		action := result.Action.Clone()
		group.Go(func() error {
			if err := p.injector.Inject(ctx, action); err != nil {
				return fmt.Errorf("inject %s: %w", action, err)
			}
			return nil
		})
	}
	if result.Response != "" && p.speaker != nil {
		response := result.Response
		group.Go(func() error {
			if err := p.speaker.Speak(ctx, response); err != nil {
				p.logger.Warn("speech synthesis failed", zap.Error(err))
			}
			return nil
		})
	}

	err := group.Wait()
	if result.Failed() {
		err = errors.Join(err, result.Err)
	}

	return result, err
}

func (p *Pipeline) suggest(ctx context.Context, transcript string) *domain.Suggestion {
	if p.suggester == nil {
		return nil
	}

	suggestCtx, cancel := context.WithTimeout(ctx, p.suggestTimeout)
	defer cancel()

	suggestion, err := p.suggester.Suggest(suggestCtx, transcript)
	if err != nil {
		p.logger.Warn("language model unavailable, resolving without suggestion", zap.Error(err))
		return nil
	}

	return suggestion
}
