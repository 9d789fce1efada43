package application

import (
	"context"
	"strings"
	"time"

	"github.com/bnema/roland/internal/domain"
)

const DefaultDialogTimeout = 30 * time.Second

type macroCreator interface {
	Create(ctx context.Context, spec MacroSpec) (domain.Macro, error)
	Namespace() *AliasNamespace
}

// DialogStep is the outcome of one transcript fed to a dialog.
type DialogStep struct {
	Stage     domain.DraftStage
	Macro     *domain.Macro
	Err       error
	Cancelled bool
}

// Dialog captures a macro over several turns: first the trigger phrase, then
// the key action. The deadline is checked by the caller at the start of the
// next dispatch; nothing runs in the background.
type Dialog struct {
	creator   macroCreator
	timeout   time.Duration
	grammar   ActionGrammar
	normalize func(string) string
	draft     domain.Draft
	deadline  time.Time
}

var triggerPrefixes = []string{"call it ", "name it ", "the trigger is ", "trigger ", "when i say "}

func NewDialog(creator macroCreator, timeout time.Duration, now time.Time) *Dialog {
	if timeout <= 0 {
		timeout = DefaultDialogTimeout
	}

	return &Dialog{
		creator:   creator,
		timeout:   timeout,
		normalize: domain.NormalizePhrase,
		draft:     domain.Draft{Stage: domain.StageAwaitingTrigger},
		deadline:  now.Add(timeout),
	}
}

func (d *Dialog) Stage() domain.DraftStage {
	return d.draft.Stage
}

func (d *Dialog) Draft() domain.Draft {
	draft := d.draft
	draft.Keys = append([]string(nil), d.draft.Keys...)
	return draft
}

func (d *Dialog) Deadline() time.Time {
	return d.deadline
}

func (d *Dialog) Expired(now time.Time) bool {
	return now.After(d.deadline)
}

func (d *Dialog) Advance(ctx context.Context, transcript string, now time.Time) DialogStep {
	if d.draft.Stage == domain.StageComplete {
		return DialogStep{Stage: domain.StageComplete}
	}
	d.deadline = now.Add(d.timeout)

	phrase := d.normalize(transcript)
	if domain.IsCancelPhrase(phrase) {
		d.draft.Stage = domain.StageComplete
		return DialogStep{Stage: domain.StageComplete, Cancelled: true}
	}

	switch d.draft.Stage {
	case domain.StageAwaitingTrigger:
		return d.acceptTrigger(phrase)
	case domain.StageAwaitingAction:
		return d.acceptAction(ctx, transcript)
	default:
		return DialogStep{Stage: d.draft.Stage}
	}
}

func (d *Dialog) acceptTrigger(phrase string) DialogStep {
	for _, prefix := range triggerPrefixes {
		if rest, ok := strings.CutPrefix(phrase, prefix); ok {
			phrase = rest
			break
		}
	}
	if phrase == "" {
		return DialogStep{Stage: d.draft.Stage, Err: domain.ErrEmptyPhrase}
	}

	d.draft.Trigger = phrase
	if err := d.creator.Namespace().Conflicts("", phrase); err != nil {
		d.draft.Stage = domain.StageComplete
		return DialogStep{Stage: domain.StageComplete, Err: err}
	}

	d.draft.Stage = domain.StageAwaitingAction
	return DialogStep{Stage: d.draft.Stage}
}

func (d *Dialog) acceptAction(ctx context.Context, transcript string) DialogStep {
	spec, err := d.grammar.Parse(transcript)
	if err != nil {
		return DialogStep{Stage: d.draft.Stage, Err: err}
	}

	d.draft.Keys = spec.Keys
	d.draft.Kind = spec.Kind
	d.draft.Duration = spec.Duration
	d.draft.Stage = domain.StageComplete

	macro, err := d.creator.Create(ctx, MacroSpec{
		Trigger:  d.draft.Trigger,
		Keys:     spec.Keys,
		Kind:     spec.Kind,
		Duration: spec.Duration,
	})
	if err != nil {
		return DialogStep{Stage: domain.StageComplete, Err: err}
	}

	return DialogStep{Stage: domain.StageComplete, Macro: &macro}
}
