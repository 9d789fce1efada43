package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type pipelineFixture struct {
	pipeline  *Pipeline
	store     *MacroStore
	suggester *mocks.MockSuggester
	injector  *mocks.MockKeyInjector
	speaker   *mocks.MockSpeaker
	logs      *observer.ObservedLogs
}

func newPipelineFixture(t *testing.T, opts PipelineOptions) pipelineFixture {
	t.Helper()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	clock := newFakeClock()
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)
	dispatcher := NewDispatcher(store, NewResolver(store, ResolverOptions{}), NewContextTracker(0, clock), clock, logger, DispatcherOptions{})

	f := pipelineFixture{
		store:     store,
		suggester: mocks.NewMockSuggester(t),
		injector:  mocks.NewMockKeyInjector(t),
		speaker:   mocks.NewMockSpeaker(t),
		logs:      logs,
	}
	f.pipeline = NewPipeline(dispatcher, f.suggester, f.injector, f.speaker, logger, opts)
	return f
}

func TestPipelineInjectsAndSpeaks(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, PipelineOptions{})
	gear := domain.ActionRef{Source: domain.SourceBuiltin, Name: "landing_gear", Keys: []string{"n"}, Kind: domain.ActionPress}

	f.suggester.EXPECT().Suggest(mockAnyContext(), "lower the landing gear").Return(nil, nil).Once()
	f.injector.EXPECT().Inject(mockAnyContext(), gear).Return(nil).Once()
	f.speaker.EXPECT().Speak(mockAnyContext(), "Landing gear deployed, Commander.").Return(nil).Once()

	result, err := f.pipeline.Process(context.Background(), "", "lower the landing gear")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentExecuteBuiltin, result.Intent)
}

func TestPipelineSpeechFailureIsOnlyLogged(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, PipelineOptions{})

	f.suggester.EXPECT().Suggest(mockAnyContext(), mock.Anything).Return(nil, nil).Once()
	f.injector.EXPECT().Inject(mockAnyContext(), mock.AnythingOfType("domain.ActionRef")).Return(nil).Once()
	f.speaker.EXPECT().Speak(mockAnyContext(), mock.Anything).Return(errors.New("espeak: not installed")).Once()

	result, err := f.pipeline.Process(context.Background(), "", "flight ready")
	require.NoError(t, err)
	require.NotNil(t, result.Action)
	assert.Equal(t, 1, f.logs.FilterMessage("speech synthesis failed").Len())
}

func TestPipelineInjectorFailureIsReturned(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, PipelineOptions{})
	injectErr := errors.New("xdotool: display not found")

	f.suggester.EXPECT().Suggest(mockAnyContext(), mock.Anything).Return(nil, nil).Once()
	f.injector.EXPECT().Inject(mockAnyContext(), mock.Anything).Return(injectErr).Once()
	f.speaker.EXPECT().Speak(mockAnyContext(), mock.Anything).Return(nil).Once()

	_, err := f.pipeline.Process(context.Background(), "", "flight ready")
	require.ErrorIs(t, err, injectErr)
	assert.Contains(t, err.Error(), "inject press r")
}

func TestPipelineLanguageModelOutageDegradesToAliases(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, PipelineOptions{})

	f.suggester.EXPECT().Suggest(mockAnyContext(), mock.Anything).Return(nil, errors.New("connection refused")).Once()
	f.injector.EXPECT().Inject(mockAnyContext(), mock.Anything).Return(nil).Once()
	f.speaker.EXPECT().Speak(mockAnyContext(), mock.Anything).Return(nil).Once()

	result, err := f.pipeline.Process(context.Background(), "", "request landing")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentExecuteBuiltin, result.Intent)
	assert.Equal(t, 1, f.logs.FilterMessage("language model unavailable, resolving without suggestion").Len())
}

func TestPipelineSuggestionTimeout(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, PipelineOptions{SuggestTimeout: 20 * time.Millisecond})

	f.suggester.EXPECT().Suggest(mockAnyContext(), mock.Anything).
		RunAndReturn(func(ctx context.Context, _ string) (*domain.Suggestion, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Once()
	f.injector.EXPECT().Inject(mockAnyContext(), mock.Anything).Return(nil).Once()
	f.speaker.EXPECT().Speak(mockAnyContext(), mock.Anything).Return(nil).Once()

	result, err := f.pipeline.Process(context.Background(), "", "flight ready")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentExecuteBuiltin, result.Intent)
}

func TestPipelineUsesSuggestion(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, PipelineOptions{})
	mustCreate(t, f.store, "boost", "shift")

	f.suggester.EXPECT().Suggest(mockAnyContext(), "scrap the boost one").
		Return(&domain.Suggestion{Label: domain.LabelDeleteMacro, Slots: map[string]string{"name": "boost"}}, nil).Once()
	f.speaker.EXPECT().Speak(mockAnyContext(), deletedResponse("boost")).Return(nil).Once()

	result, err := f.pipeline.Process(context.Background(), "", "scrap the boost one")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentManageMacro, result.Intent)
	_, ok := f.store.FindByAlias("boost")
	assert.False(t, ok)
}

func TestPipelineSkipsSuggestionsDuringDialog(t *testing.T) {
	t.Parallel()

	f := newPipelineFixture(t, PipelineOptions{})

	f.suggester.EXPECT().Suggest(mockAnyContext(), "create a macro").Return(nil, nil).Once()
	f.speaker.EXPECT().Speak(mockAnyContext(), mock.Anything).Return(nil).Times(3)

	_, err := f.pipeline.Process(context.Background(), "", "create a macro")
	require.NoError(t, err)
	_, err = f.pipeline.Process(context.Background(), "", "panic mode")
	require.NoError(t, err)
	result, err := f.pipeline.Process(context.Background(), "", "press c")
	require.NoError(t, err)
	require.NotNil(t, result.Macro)
	assert.Equal(t, "panic mode", result.Macro.Trigger)
}

func TestPipelineWithoutCollaborators(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	clock := newFakeClock()
	dispatcher := NewDispatcher(store, NewResolver(store, ResolverOptions{}), NewContextTracker(0, clock), clock, nil, DispatcherOptions{})
	pipeline := NewPipeline(dispatcher, nil, nil, nil, nil, PipelineOptions{})

	result, err := pipeline.Process(context.Background(), "", "flight ready")
	require.NoError(t, err)
	require.NotNil(t, result.Action)
	assert.Equal(t, []string{"r"}, result.Action.Keys)
}
