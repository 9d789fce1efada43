package application

import (
	"errors"
	"testing"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want ActionSpec
	}{
		{text: "press C", want: ActionSpec{Keys: []string{"c"}, Kind: domain.ActionPress}},
		{text: "Tap the escape key.", want: ActionSpec{Keys: []string{"esc"}, Kind: domain.ActionPress}},
		{text: "hit F five", want: ActionSpec{Keys: []string{"f5"}, Kind: domain.ActionPress}},
		{text: "hold B", want: ActionSpec{Keys: []string{"b"}, Kind: domain.ActionHold}},
		{text: "hold B for 2 seconds", want: ActionSpec{Keys: []string{"b"}, Kind: domain.ActionHold, Duration: 2 * time.Second}},
		{text: "hold b for 800 ms", want: ActionSpec{Keys: []string{"b"}, Kind: domain.ActionHold, Duration: 800 * time.Millisecond}},
		{text: "hold down alt and y for half a second", want: ActionSpec{Keys: []string{"alt", "y"}, Kind: domain.ActionHold, Duration: 500 * time.Millisecond}},
		{text: "hold tab for three seconds", want: ActionSpec{Keys: []string{"tab"}, Kind: domain.ActionHold, Duration: 3 * time.Second}},
		{text: "combo control and n", want: ActionSpec{Keys: []string{"ctrl", "n"}, Kind: domain.ActionCombo}},
		{text: "press ctrl+n", want: ActionSpec{Keys: []string{"ctrl", "n"}, Kind: domain.ActionCombo}},
		{text: "ctrl plus shift plus f five", want: ActionSpec{Keys: []string{"ctrl", "shift", "f5"}, Kind: domain.ActionCombo}},
		{text: "ctrl n", want: ActionSpec{Keys: []string{"ctrl", "n"}, Kind: domain.ActionCombo}},
		{text: "left shift then page up", want: ActionSpec{Keys: []string{"shift_l", "page_up"}, Kind: domain.ActionCombo}},
		{text: "space bar", want: ActionSpec{Keys: []string{"space"}, Kind: domain.ActionPress}},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAction(tc.text)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ParseAction(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestParseActionRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text       string
		unknownKey bool
	}{
		{text: ""},
		{text: "press"},
		{text: "press banana", unknownKey: true},
		{text: "combo c"},
		{text: "hold b for"},
		{text: "hold b for ever"},
		{text: "hold b for 2 fortnights"},
		{text: "ctrl wibble", unknownKey: true},
		{text: "hold w for 100000 seconds"},
		{text: "hold w for 1e300 seconds"},
		{text: "hold w for 1e300 ms"},
		{text: "hold w for inf seconds"},
		{text: "hold w for nan seconds"},
		{text: "hold w for six seconds"},
		{text: "hold w for 5001 ms"},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()

			_, err := ParseAction(tc.text)
			require.ErrorIs(t, err, domain.ErrUnparseableAction)
			assert.Equal(t, tc.unknownKey, errors.Is(err, domain.ErrUnknownKey))
		})
	}
}

func TestActionGrammarMaxHold(t *testing.T) {
	t.Parallel()

	got, err := ParseAction("hold w for five seconds")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMaxHold, got.Duration)

	wide := ActionGrammar{MaxHold: 10 * time.Second}
	got, err = wide.Parse("hold w for eight seconds")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Second, got.Duration)

	_, err = wide.Parse("hold w for 11 seconds")
	require.ErrorIs(t, err, domain.ErrUnparseableAction)

	tight := ActionGrammar{MaxHold: 500 * time.Millisecond}
	_, err = tight.Parse("hold w for 2 seconds")
	require.ErrorIs(t, err, domain.ErrUnparseableAction)
}
