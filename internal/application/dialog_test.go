package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialogCapturesTriggerThenAction(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	dialog := NewDialog(store, 30*time.Second, testEpoch)
	require.Equal(t, domain.StageAwaitingTrigger, dialog.Stage())

	step := dialog.Advance(context.Background(), "Panic mode!", testEpoch)
	require.NoError(t, step.Err)
	assert.Equal(t, domain.StageAwaitingAction, step.Stage)
	assert.Equal(t, "panic mode", dialog.Draft().Trigger)

	step = dialog.Advance(context.Background(), "press C", testEpoch.Add(5*time.Second))
	require.NoError(t, step.Err)
	assert.Equal(t, domain.StageComplete, step.Stage)
	require.NotNil(t, step.Macro)
	assert.Equal(t, "panic mode", step.Macro.Trigger)
	assert.Equal(t, []string{"c"}, step.Macro.Keys)
	assert.Equal(t, domain.ActionPress, step.Macro.Kind)

	found, ok := store.FindByAlias("panic mode")
	require.True(t, ok)
	assert.Equal(t, step.Macro.ID, found.ID)

	step = dialog.Advance(context.Background(), "press d", testEpoch.Add(6*time.Second))
	assert.Equal(t, DialogStep{Stage: domain.StageComplete}, step)
}

func TestDialogStripsTriggerPrefixes(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	dialog := NewDialog(store, 0, testEpoch)

	step := dialog.Advance(context.Background(), "Call it evasive maneuvers", testEpoch)
	require.NoError(t, step.Err)
	assert.Equal(t, "evasive maneuvers", dialog.Draft().Trigger)
	assert.Equal(t, testEpoch.Add(DefaultDialogTimeout), dialog.Deadline())
}

func TestDialogEmptyTriggerStaysAwaitingTrigger(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	dialog := NewDialog(store, time.Minute, testEpoch)

	step := dialog.Advance(context.Background(), " ... ", testEpoch)
	require.ErrorIs(t, step.Err, domain.ErrEmptyPhrase)
	assert.Equal(t, domain.StageAwaitingTrigger, step.Stage)
	assert.Equal(t, domain.StageAwaitingTrigger, dialog.Stage())
}

func TestDialogUnparseableActionStaysAwaitingAction(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	store := newTestStore(t, repo, MacroStoreOptions{})
	dialog := NewDialog(store, time.Minute, testEpoch)
	dialog.Advance(context.Background(), "panic mode", testEpoch)

	step := dialog.Advance(context.Background(), "press the big red one", testEpoch)
	require.ErrorIs(t, step.Err, domain.ErrUnparseableAction)
	assert.Equal(t, domain.StageAwaitingAction, step.Stage)
	assert.Equal(t, 0, repo.count())

	step = dialog.Advance(context.Background(), "hold c for 2 seconds", testEpoch)
	require.NoError(t, step.Err)
	require.NotNil(t, step.Macro)
	assert.Equal(t, domain.ActionHold, step.Macro.Kind)
	assert.Equal(t, 2*time.Second, step.Macro.Duration)
}

func TestDialogTriggerConflictCompletesWithoutSaving(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	store := newTestStore(t, repo, MacroStoreOptions{})
	dialog := NewDialog(store, time.Minute, testEpoch)

	step := dialog.Advance(context.Background(), "Flight ready", testEpoch)
	require.ErrorIs(t, step.Err, domain.ErrAliasConflict)
	assert.Equal(t, domain.StageComplete, step.Stage)
	assert.Nil(t, step.Macro)
	assert.Equal(t, 0, repo.count())
}

func TestDialogConflictDiscoveredAtCreateCompletes(t *testing.T) {
	t.Parallel()

	repo := &memoryRepo{}
	store := newTestStore(t, repo, MacroStoreOptions{})
	dialog := NewDialog(store, time.Minute, testEpoch)
	dialog.Advance(context.Background(), "panic mode", testEpoch)

	mustCreate(t, store, "panic mode", "x")

	step := dialog.Advance(context.Background(), "press c", testEpoch)
	require.ErrorIs(t, step.Err, domain.ErrAliasConflict)
	assert.Equal(t, domain.StageComplete, step.Stage)
	assert.Equal(t, 1, repo.count())
}

func TestDialogCancel(t *testing.T) {
	t.Parallel()

	for _, phrase := range []string{"cancel", "Never mind.", "stop"} {
		store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
		dialog := NewDialog(store, time.Minute, testEpoch)
		dialog.Advance(context.Background(), "panic mode", testEpoch)

		step := dialog.Advance(context.Background(), phrase, testEpoch)
		assert.True(t, step.Cancelled, phrase)
		assert.Equal(t, domain.StageComplete, step.Stage, phrase)
		assert.Equal(t, 0, store.Namespace().MacroCount(), phrase)
	}
}

func TestDialogDeadlineRefreshesOnEveryTurn(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	dialog := NewDialog(store, 30*time.Second, testEpoch)

	assert.False(t, dialog.Expired(testEpoch.Add(30*time.Second)))
	assert.True(t, dialog.Expired(testEpoch.Add(30*time.Second+time.Nanosecond)))

	dialog.Advance(context.Background(), "panic mode", testEpoch.Add(20*time.Second))
	assert.Equal(t, testEpoch.Add(50*time.Second), dialog.Deadline())
	assert.False(t, dialog.Expired(testEpoch.Add(45*time.Second)))
}

func TestDialogDraftIsACopy(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	dialog := NewDialog(store, time.Minute, testEpoch)
	dialog.Advance(context.Background(), "panic mode", testEpoch)
	dialog.Advance(context.Background(), "combo ctrl and c", testEpoch)

	draft := dialog.Draft()
	require.Equal(t, []string{"ctrl", "c"}, draft.Keys)
	draft.Keys[0] = "alt"
	assert.Equal(t, []string{"ctrl", "c"}, dialog.Draft().Keys)
}
