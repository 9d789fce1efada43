package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// Limit draws a capacity bar next to the macro count when positive.
	Limit int
	// HideKeybinds and HideMacros drop a section entirely.
	HideKeybinds bool
	HideMacros   bool
}

func renderView(catalog Catalog, opts RenderOptions, s styles) string {
	var sections []string
	if !opts.HideMacros {
		sections = append(sections, renderMacros(catalog.Macros, opts, s))
	}
	if !opts.HideKeybinds {
		sections = append(sections, renderKeybinds(catalog.Keybinds, s))
	}

	for i := 1; i < len(sections); i++ {
		sections[i] = s.section.Render(sections[i])
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderMacros(macros []domain.Macro, opts RenderOptions, s styles) string {
	header := fmt.Sprintf("macros: %d", len(macros))
	if opts.Limit > 0 {
		header = lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.header.Render(fmt.Sprintf("macros: %d/%d", len(macros), opts.Limit)),
			" ",
			renderCapacityBar(len(macros), opts.Limit, 20, s),
		)
	} else {
		header = s.header.Render(header)
	}

	lines := []string{s.title.Render("Voice Macros"), header}
	if len(macros) == 0 {
		lines = append(lines, s.empty.Render("No macros yet. Say \"create a macro\" to teach one."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, macro := range macros {
		lines = append(lines, renderMacro(macro, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMacro(macro domain.Macro, opts RenderOptions, s styles) string {
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.trigger.Render(macro.Trigger),
		"  ",
		s.detail.Render(macro.Ref().String()),
		"  ",
		s.alias.Render(usageLabel(macro, opts.Now)),
	)

	if len(macro.Aliases) == 0 {
		return line
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		line,
		s.alias.Render("  also: "+strings.Join(macro.Aliases, ", ")),
	)
}

func renderKeybinds(bindings []domain.KeybindAction, s styles) string {
	lines := []string{
		s.title.Render("Built-in Keybinds"),
		s.header.Render(fmt.Sprintf("keybinds: %d", len(bindings))),
	}
	if len(bindings) == 0 {
		lines = append(lines, s.empty.Render("No keybinds loaded."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	category := ""
	for _, binding := range bindings {
		if binding.Category != category {
			category = binding.Category
			lines = append(lines, s.category.Render(categoryTitle(category)))
		}

		line := lipgloss.JoinHorizontal(
			lipgloss.Top,
			"  ",
			s.trigger.Render(binding.Name),
			"  ",
			s.detail.Render(binding.Ref().String()),
		)
		if aliases := binding.AllAliases(); len(aliases) > 0 {
			line += "  " + s.alias.Render(`"`+strings.Join(aliases, `", "`)+`"`)
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func categoryTitle(category string) string {
	if category == "" {
		return "other"
	}
	return category
}

func usageLabel(macro domain.Macro, now time.Time) string {
	uses := "never used"
	switch macro.UseCount {
	case 0:
	case 1:
		uses = "used once"
	default:
		uses = fmt.Sprintf("used %d times", macro.UseCount)
	}

	if macro.LastUsed.IsZero() {
		return uses
	}

	return fmt.Sprintf("%s, last %s", uses, formatRelative(macro.LastUsed, now))
}

func formatRelative(at, now time.Time) string {
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(math.Floor(elapsed.Hours()/24)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func renderCapacityBar(used, limit, width int, s styles) string {
	if width <= 0 || limit <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * float64(used) / float64(limit)))
	filled = max(0, min(filled, width))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}
