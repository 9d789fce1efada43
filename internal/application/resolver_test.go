package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/keybinds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) (*Resolver, *MacroStore) {
	t.Helper()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	return NewResolver(store, ResolverOptions{WakeWord: "Roland"}), store
}

func TestResolverBuiltinFallbackWithoutSuggestion(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	intent := resolver.Resolve("Lower the landing gear", nil)
	builtin, ok := intent.(domain.ExecuteBuiltin)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, "landing_gear", builtin.Action.Name)
	assert.Equal(t, "lower the landing gear", builtin.Alias)
}

func TestResolverIgnoresMisleadingSuggestionForAliases(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	intent := resolver.Resolve("flight ready", &domain.Suggestion{Label: domain.LabelExecute, Slots: map[string]string{"name": "eject"}})
	builtin, ok := intent.(domain.ExecuteBuiltin)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, "flight_ready", builtin.Action.Name)
}

func TestResolverNormalizesWakeWordAndFillers(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	assert.Equal(t, "lower the landing gear", resolver.Normalize("Hey Roland, could you lower the landing gear now, please?"))
	assert.Equal(t, "flight ready", resolver.Normalize("roland flight ready"))
	assert.Equal(t, "", resolver.Normalize("Roland"))

	intent := resolver.Resolve("Roland, request landing please", nil)
	builtin, ok := intent.(domain.ExecuteBuiltin)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, "request_landing", builtin.Action.Name)
}

func TestResolverFuzzyMatch(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	tests := map[string]string{
		"landng gear":    "landing_gear",
		"flight redy":    "flight_ready",
		"engage quantum": "quantum_drive",
		"quantum":        "quantum_drive",
	}
	for transcript, want := range tests {
		intent := resolver.Resolve(transcript, nil)
		builtin, ok := intent.(domain.ExecuteBuiltin)
		require.True(t, ok, "%q resolved to %#v", transcript, intent)
		assert.Equal(t, want, builtin.Action.Name, transcript)
	}
}

func TestResolverThresholdRejectsWeakMatches(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, &memoryRepo{}, MacroStoreOptions{})
	strict := NewResolver(store, ResolverOptions{Threshold: 0.99})

	intent := strict.Resolve("flight redy", nil)
	assert.Equal(t, domain.Unrecognized{Transcript: "flight redy"}, intent)

	intent = strict.Resolve("flight ready", nil)
	assert.IsType(t, domain.ExecuteBuiltin{}, intent)
}

func TestResolverUnrecognized(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	assert.Equal(t, domain.Unrecognized{Transcript: "open the pod bay doors"}, resolver.Resolve("open the pod bay doors", nil))
	assert.Equal(t, domain.Unrecognized{Transcript: "  "}, resolver.Resolve("  ", nil))
	assert.Equal(t, domain.Unrecognized{Transcript: "Roland"}, resolver.Resolve("Roland", nil))
}

func TestResolverAmbiguousMacrosAreUnrecognized(t *testing.T) {
	t.Parallel()

	resolver, store := newTestResolver(t)
	mustCreate(t, store, "boost", "shift")
	mustCreate(t, store, "boosted", "ctrl", "shift")

	intent := resolver.Resolve("boost", nil)
	unrecognized, ok := intent.(domain.Unrecognized)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, []string{"boost", "boosted"}, unrecognized.Candidates)
}

func TestResolverPrefersMacroOverBuiltinWithinEpsilon(t *testing.T) {
	t.Parallel()

	resolver, store := newTestResolver(t)
	macro := mustCreate(t, store, "landing gears", "n", "l")

	intent := resolver.Resolve("landing gear", nil)
	execute, ok := intent.(domain.ExecuteMacro)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, macro.ID, execute.Macro.ID)
	assert.Equal(t, "landing gears", execute.Alias)
}

func TestResolverExactTiePrefersNewestMacro(t *testing.T) {
	t.Parallel()

	resolver, store := newTestResolver(t)
	mustCreate(t, store, "boosx", "x")
	newer := mustCreate(t, store, "boosy", "y")

	intent := resolver.Resolve("boost", nil)
	execute, ok := intent.(domain.ExecuteMacro)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, newer.ID, execute.Macro.ID)
}

func TestResolverRankingRules(t *testing.T) {
	t.Parallel()

	builtinShort := scoredTarget{owner: AliasOwner{Kind: domain.OwnerBuiltin, Name: "gear"}, alias: "gear", score: 0.9}
	builtinLong := scoredTarget{owner: AliasOwner{Kind: domain.OwnerBuiltin, Name: "gear_down"}, alias: "gear down", score: 0.9}
	older := scoredTarget{owner: AliasOwner{Kind: domain.OwnerMacro, MacroID: "m-1"}, alias: "boost", score: 0.9, createdAt: testEpoch}
	newer := scoredTarget{owner: AliasOwner{Kind: domain.OwnerMacro, MacroID: "m-2"}, alias: "boost it", score: 0.9, createdAt: testEpoch.Add(time.Minute)}
	weaker := scoredTarget{owner: AliasOwner{Kind: domain.OwnerMacro, MacroID: "m-3"}, alias: "boosted", score: 0.88, createdAt: testEpoch.Add(time.Hour)}

	assert.True(t, rankBefore(older, builtinLong), "macro before built-in")
	assert.True(t, rankBefore(newer, older), "newest macro first")
	assert.True(t, rankBefore(builtinLong, builtinShort), "longer alias first")
	assert.True(t, rankBefore(older, weaker), "score dominates")

	assert.True(t, decisiveTie(newer, older))
	assert.True(t, decisiveTie(builtinLong, builtinShort))
	assert.False(t, decisiveTie(older, weaker), "a score gap inside epsilon is ambiguous")

	sameLength := builtinShort
	sameLength.owner.Name = "other"
	assert.False(t, decisiveTie(builtinShort, sameLength))
}

func TestResolverRepeat(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	for _, transcript := range []string{"repeat", "Do that again!", "please repeat that", "Roland, same again"} {
		assert.Equal(t, domain.RepeatLast{}, resolver.Resolve(transcript, nil), transcript)
	}
	assert.Equal(t, domain.RepeatLast{}, resolver.Resolve("one more of those", &domain.Suggestion{Label: "Repeat"}))
}

func TestResolverMacroDefinition(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	tests := []struct {
		transcript string
		suggestion *domain.Suggestion
		want       domain.StartMacroDefinition
	}{
		{transcript: "When I say panic mode", want: domain.StartMacroDefinition{Trigger: "panic mode"}},
		{transcript: "When I say panic mode, press C", want: domain.StartMacroDefinition{Trigger: "panic mode", ActionText: "press c"}},
		{transcript: "whenever i say evasive then hold shift for 2 seconds", want: domain.StartMacroDefinition{Trigger: "evasive", ActionText: "hold shift for 2 seconds"}},
		{transcript: "create a macro", want: domain.StartMacroDefinition{}},
		{transcript: "Create a new macro called warp home", want: domain.StartMacroDefinition{Trigger: "warp home"}},
		{
			transcript: "teach me something",
			suggestion: &domain.Suggestion{Label: "create macro", Slots: map[string]string{"trigger": "Warp Home", "action": "press w"}},
			want:       domain.StartMacroDefinition{Trigger: "warp home", ActionText: "press w"},
		},
		{
			transcript: "new shortcut please",
			suggestion: &domain.Suggestion{Label: domain.LabelCreateMacro, Slots: map[string]string{"name": "evasive"}},
			want:       domain.StartMacroDefinition{Trigger: "evasive"},
		},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, resolver.Resolve(tc.transcript, tc.suggestion), tc.transcript)
	}
}

func TestResolverManageMacros(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	tests := []struct {
		transcript string
		suggestion *domain.Suggestion
		want       domain.ManageMacro
	}{
		{transcript: "list my macros", want: domain.ManageMacro{Op: domain.ManageList}},
		{transcript: "Roland, show me all my macros", want: domain.ManageMacro{Op: domain.ManageList}},
		{transcript: "what do I have", suggestion: &domain.Suggestion{Label: "list-macros"}, want: domain.ManageMacro{Op: domain.ManageList}},
		{transcript: "delete the boost macro", want: domain.ManageMacro{Op: domain.ManageDelete, Name: "boost"}},
		{transcript: "remove macro called panic mode", want: domain.ManageMacro{Op: domain.ManageDelete, Name: "panic mode"}},
		{
			transcript: "get rid of that one",
			suggestion: &domain.Suggestion{Label: domain.LabelDeleteMacro, Slots: map[string]string{"name": "Boost"}},
			want:       domain.ManageMacro{Op: domain.ManageDelete, Name: "boost"},
		},
		{transcript: "rename boost to turbo", want: domain.ManageMacro{Op: domain.ManageRename, Name: "boost", NewName: "turbo"}},
		{transcript: "rename the macro panic mode to bail out", want: domain.ManageMacro{Op: domain.ManageRename, Name: "panic mode", NewName: "bail out"}},
		{
			transcript: "call boost turbo instead",
			suggestion: &domain.Suggestion{Label: domain.LabelRenameMacro, Slots: map[string]string{"name": "boost", "new_name": "Turbo"}},
			want:       domain.ManageMacro{Op: domain.ManageRename, Name: "boost", NewName: "turbo"},
		},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, resolver.Resolve(tc.transcript, tc.suggestion), tc.transcript)
	}
}

func TestResolverFindsAliasInsideLongerUtterance(t *testing.T) {
	t.Parallel()

	builtins, err := keybinds.Default()
	require.NoError(t, err)
	store, err := NewMacroStore(&memoryRepo{}, builtins, MacroStoreOptions{Clock: tickingClock{newFakeClock()}, NewID: sequentialIDs()})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	resolver := NewResolver(store, ResolverOptions{WakeWord: "roland"})

	tests := map[string]string{
		"let's lower the landing gear":   "landing_gear",
		"okay team engage quantum drive": "quantum_drive",
		"time to request landing":        "request_landing",
		"go ahead and eject":             "eject",
		"engage the quantum drive":       "quantum_drive",
	}
	for transcript, want := range tests {
		intent := resolver.Resolve(transcript, nil)
		builtin, ok := intent.(domain.ExecuteBuiltin)
		require.True(t, ok, "%q resolved to %#v", transcript, intent)
		assert.Equal(t, want, builtin.Action.Name, transcript)
	}
}

func TestResolverTwoAliasesInOneUtteranceAreAmbiguous(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	intent := resolver.Resolve("lower the landing gear and request landing", nil)
	unrecognized, ok := intent.(domain.Unrecognized)
	require.True(t, ok, "got %#v", intent)
	assert.ElementsMatch(t, []string{"lower the landing gear", "request landing"}, unrecognized.Candidates)
}

func TestResolverContainedMacroTrigger(t *testing.T) {
	t.Parallel()

	resolver, store := newTestResolver(t)
	macro := mustCreate(t, store, "panic mode", "c")

	intent := resolver.Resolve("okay panic mode right now", nil)
	execute, ok := intent.(domain.ExecuteMacro)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, macro.ID, execute.Macro.ID)
}

func TestResolverExecuteSuggestionNamesBinding(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	intent := resolver.Resolve("put the wheels down", &domain.Suggestion{Label: domain.LabelExecute, Slots: map[string]string{"name": "landing gear"}})
	builtin, ok := intent.(domain.ExecuteBuiltin)
	require.True(t, ok, "got %#v", intent)
	assert.Equal(t, "landing_gear", builtin.Action.Name)

	intent = resolver.Resolve("put the wheels down", &domain.Suggestion{Label: domain.LabelExecute, Slots: map[string]string{"name": "landing_gear"}})
	assert.IsType(t, domain.ExecuteBuiltin{}, intent)
}

func TestResolverExecuteSuggestionMustNameRealAlias(t *testing.T) {
	t.Parallel()

	resolver, _ := newTestResolver(t)

	intent := resolver.Resolve("open the pod bay doors", &domain.Suggestion{Label: domain.LabelExecute, Slots: map[string]string{"name": "pod bay doors"}})
	assert.Equal(t, domain.Unrecognized{Transcript: "open the pod bay doors"}, intent)

	intent = resolver.Resolve("open the pod bay doors", &domain.Suggestion{Label: domain.LabelExecute})
	assert.Equal(t, domain.Unrecognized{Transcript: "open the pod bay doors"}, intent)
}

func TestNewResolverDefaults(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(nil, ResolverOptions{})
	assert.Equal(t, DefaultMatchThreshold, resolver.opts.Threshold)
	assert.Equal(t, DefaultMatchEpsilon, resolver.opts.Epsilon)
}

func TestAliasScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, aliasScore("gear down", "gear down"))
	assert.InDelta(t, 0.94, aliasScore("please put gear down now", "gear down"), 0.0001)
	assert.Less(t, aliasScore("engage the gearbox", "gear"), DefaultMatchThreshold, "containment is word aligned")
	assert.GreaterOrEqual(t, aliasScore("engage the quantum drive", "engage quantum drive"), 0.9)
	assert.Less(t, aliasScore("power to the engines", "divert power to weapons"), DefaultMatchThreshold)
}
