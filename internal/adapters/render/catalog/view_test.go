package catalog

import (
	"testing"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMacros(t *testing.T) {
	now := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

	output, err := Render(Catalog{
		Macros: []domain.Macro{
			{
				ID:        "m-1",
				Trigger:   "panic mode",
				Keys:      []string{"c"},
				Kind:      domain.ActionPress,
				Aliases:   []string{"oh no"},
				CreatedAt: now.Add(-48 * time.Hour),
				LastUsed:  now.Add(-5 * time.Minute),
				UseCount:  3,
			},
			{
				ID:        "m-2",
				Trigger:   "evasive",
				Keys:      []string{"shift"},
				Kind:      domain.ActionHold,
				Duration:  2 * time.Second,
				CreatedAt: now.Add(-time.Hour),
			},
		},
	}, RenderOptions{Now: now, Limit: 100, HideKeybinds: true})

	require.NoError(t, err)
	assert.Contains(t, output, "Voice Macros")
	assert.Contains(t, output, "macros: 2/100")
	assert.Contains(t, output, "panic mode")
	assert.Contains(t, output, "press c")
	assert.Contains(t, output, "used 3 times, last 5 minutes ago")
	assert.Contains(t, output, "also: oh no")
	assert.Contains(t, output, "hold shift 2s")
	assert.Contains(t, output, "never used")
	assert.NotContains(t, output, "Built-in Keybinds")
}

func TestRenderEmptyMacros(t *testing.T) {
	output, err := Render(Catalog{}, RenderOptions{HideKeybinds: true})

	require.NoError(t, err)
	assert.Contains(t, output, "macros: 0")
	assert.Contains(t, output, "No macros yet.")
}

func TestRenderKeybindsGroupedByCategory(t *testing.T) {
	output, err := Render(Catalog{
		Keybinds: []domain.KeybindAction{
			{Name: "landing_gear", Category: "flight", Keys: []string{"n"}, Kind: domain.ActionPress, Aliases: []string{"landing gear", "gear down"}},
			{Name: "request_landing", Category: "flight", Keys: []string{"ctrl", "n"}, Kind: domain.ActionCombo},
			{Name: "power_to_shields", Category: "power", Keys: []string{"f7"}, Kind: domain.ActionPress},
		},
	}, RenderOptions{HideMacros: true})

	require.NoError(t, err)
	assert.Contains(t, output, "Built-in Keybinds")
	assert.Contains(t, output, "keybinds: 3")
	assert.Contains(t, output, "flight")
	assert.Contains(t, output, "power")
	assert.Contains(t, output, "combo ctrl+n")
	assert.Contains(t, output, `"landing gear", "gear down"`)
	assert.NotContains(t, output, "Voice Macros")
}

func TestUsageLabel(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		macro domain.Macro
		want  string
	}{
		{name: "never", macro: domain.Macro{}, want: "never used"},
		{name: "once recently", macro: domain.Macro{UseCount: 1, LastUsed: now.Add(-10 * time.Second)}, want: "used once, last just now"},
		{name: "hours", macro: domain.Macro{UseCount: 4, LastUsed: now.Add(-90 * time.Minute)}, want: "used 4 times, last 1 hour ago"},
		{name: "days", macro: domain.Macro{UseCount: 2, LastUsed: now.Add(-50 * time.Hour)}, want: "used 2 times, last 2 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, usageLabel(tt.macro, now))
		})
	}
}
