package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/roland/internal/domain"
)

type AliasOwner struct {
	Kind    domain.OwnerKind
	Name    string
	MacroID domain.MacroID
	Builtin int
}

type AliasCandidate struct {
	Alias string
	Owner AliasOwner
}

// AliasNamespace is an immutable view of every phrase that maps to an
// action: built-in keybinds, user macros and reserved control phrases.
// Writers derive a new namespace and publish it; readers never see a
// partially applied change.
type AliasNamespace struct {
	builtins []domain.KeybindAction
	macros   []domain.Macro
	owners   map[string]AliasOwner
}

func NewAliasNamespace(builtins []domain.KeybindAction) (*AliasNamespace, error) {
	ns := &AliasNamespace{
		builtins: make([]domain.KeybindAction, 0, len(builtins)),
		owners:   map[string]AliasOwner{},
	}

	for _, phrase := range domain.ReservedPhrases() {
		ns.owners[phrase] = AliasOwner{Kind: domain.OwnerReserved, Name: phrase, Builtin: -1}
	}

	for _, action := range builtins {
		if err := action.Validate(); err != nil {
			return nil, err
		}
		index := len(ns.builtins)
		ns.builtins = append(ns.builtins, action)
		for _, alias := range action.AllAliases() {
			if existing, ok := ns.owners[alias]; ok {
				return nil, fmt.Errorf("keybind %q: %w", action.Name, conflictError(alias, existing))
			}
			ns.owners[alias] = AliasOwner{Kind: domain.OwnerBuiltin, Name: action.Name, Builtin: index}
		}
	}

	return ns, nil
}

func (ns *AliasNamespace) Owner(phrase string) (AliasOwner, bool) {
	owner, ok := ns.owners[domain.NormalizePhrase(phrase)]
	return owner, ok
}

// Conflicts reports the first alias already owned by anything other than the
// macro identified by exclude.
func (ns *AliasNamespace) Conflicts(exclude domain.MacroID, aliases ...string) error {
	for _, alias := range aliases {
		normalized := domain.NormalizePhrase(alias)
		if normalized == "" {
			continue
		}
		owner, ok := ns.owners[normalized]
		if !ok {
			continue
		}
		if exclude != "" && owner.Kind == domain.OwnerMacro && owner.MacroID == exclude {
			continue
		}
		return conflictError(normalized, owner)
	}

	return nil
}

// Candidates lists every matchable alias. Reserved phrases are excluded.
func (ns *AliasNamespace) Candidates() []AliasCandidate {
	out := make([]AliasCandidate, 0, len(ns.owners))
	for alias, owner := range ns.owners {
		if owner.Kind == domain.OwnerReserved {
			continue
		}
		out = append(out, AliasCandidate{Alias: alias, Owner: owner})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })

	return out
}

func (ns *AliasNamespace) Builtin(owner AliasOwner) (domain.KeybindAction, bool) {
	if owner.Kind != domain.OwnerBuiltin || owner.Builtin < 0 || owner.Builtin >= len(ns.builtins) {
		return domain.KeybindAction{}, false
	}

	return ns.builtins[owner.Builtin], true
}

func (ns *AliasNamespace) Builtins() []domain.KeybindAction {
	return append([]domain.KeybindAction(nil), ns.builtins...)
}

func (ns *AliasNamespace) Macro(id domain.MacroID) (domain.Macro, bool) {
	for _, macro := range ns.macros {
		if macro.ID == id {
			return macro.Clone(), true
		}
	}

	return domain.Macro{}, false
}

// LookupMacro finds a macro by id, trigger or any of its aliases.
func (ns *AliasNamespace) LookupMacro(identifier string) (domain.Macro, bool) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return domain.Macro{}, false
	}
	if macro, ok := ns.Macro(domain.MacroID(trimmed)); ok {
		return macro, true
	}

	owner, ok := ns.Owner(trimmed)
	if !ok || owner.Kind != domain.OwnerMacro {
		return domain.Macro{}, false
	}

	return ns.Macro(owner.MacroID)
}

// Macros returns macros ordered by creation time.
func (ns *AliasNamespace) Macros() []domain.Macro {
	out := make([]domain.Macro, 0, len(ns.macros))
	for _, macro := range ns.macros {
		out = append(out, macro.Clone())
	}
	return out
}

func (ns *AliasNamespace) MacroCount() int {
	return len(ns.macros)
}

// withMacros rebuilds the macro half of the namespace from stored records.
// Records that collide with an alias already claimed are returned as
// conflicts and left out.
func (ns *AliasNamespace) withMacros(macros []domain.Macro) (*AliasNamespace, []error) {
	next := ns.withoutAllMacros()

	ordered := append([]domain.Macro(nil), macros...)
	sortMacros(ordered)

	var conflicts []error
	for _, macro := range ordered {
		if err := next.Conflicts("", macro.AllAliases()...); err != nil {
			conflicts = append(conflicts, fmt.Errorf("macro %q: %w", macro.ID, err))
			continue
		}
		next.addMacro(macro)
	}

	return next, conflicts
}

func (ns *AliasNamespace) withMacro(macro domain.Macro) *AliasNamespace {
	next := ns.clone()
	next.addMacro(macro)
	sortMacros(next.macros)
	return next
}

func (ns *AliasNamespace) withoutMacro(id domain.MacroID) *AliasNamespace {
	next := ns.clone()
	kept := next.macros[:0]
	for _, macro := range next.macros {
		if macro.ID == id {
			continue
		}
		kept = append(kept, macro)
	}
	next.macros = kept

	for alias, owner := range next.owners {
		if owner.Kind == domain.OwnerMacro && owner.MacroID == id {
			delete(next.owners, alias)
		}
	}

	return next
}

func (ns *AliasNamespace) withoutAllMacros() *AliasNamespace {
	next := &AliasNamespace{
		builtins: ns.builtins,
		owners:   make(map[string]AliasOwner, len(ns.owners)),
	}
	for alias, owner := range ns.owners {
		if owner.Kind == domain.OwnerMacro {
			continue
		}
		next.owners[alias] = owner
	}

	return next
}

func (ns *AliasNamespace) addMacro(macro domain.Macro) {
	stored := macro.Clone()
	ns.macros = append(ns.macros, stored)
	for _, alias := range stored.AllAliases() {
		ns.owners[alias] = AliasOwner{Kind: domain.OwnerMacro, Name: stored.Trigger, MacroID: stored.ID, Builtin: -1}
	}
}

func (ns *AliasNamespace) clone() *AliasNamespace {
	next := &AliasNamespace{
		builtins: ns.builtins,
		macros:   append([]domain.Macro(nil), ns.macros...),
		owners:   make(map[string]AliasOwner, len(ns.owners)),
	}
	for alias, owner := range ns.owners {
		next.owners[alias] = owner
	}

	return next
}

func sortMacros(macros []domain.Macro) {
	sort.SliceStable(macros, func(i, j int) bool {
		if !macros[i].CreatedAt.Equal(macros[j].CreatedAt) {
			return macros[i].CreatedAt.Before(macros[j].CreatedAt)
		}
		return macros[i].ID < macros[j].ID
	})
}

func conflictError(alias string, owner AliasOwner) error {
	return &domain.AliasConflictError{Alias: alias, OwnerKind: owner.Kind, OwnerName: owner.Name}
}
