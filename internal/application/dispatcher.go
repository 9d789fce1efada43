package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/bnema/roland/internal/ports"
	"go.uber.org/zap"
)

const DefaultSession = "default"

type Request struct {
	Session    string
	Transcript string
	Suggestion *domain.Suggestion
}

type Result struct {
	Intent        domain.IntentKind
	Action        *domain.ActionRef
	Response      string
	ContextUpdate *domain.ActionRef
	DialogStage   domain.DraftStage
	Macro         *domain.Macro
	Err           error
}

// Failed reports whether Err is a hard failure rather than something the
// user can correct by speaking again.
func (r Result) Failed() bool {
	return r.Err != nil && !correctable(r.Err)
}

func correctable(err error) bool {
	for _, target := range []error{
		domain.ErrAliasConflict,
		domain.ErrEmptyPhrase,
		domain.ErrUnparseableAction,
		domain.ErrUnknownKey,
		domain.ErrInvalidActionKind,
		domain.ErrMacroNotFound,
		domain.ErrMacroLimit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type DispatcherOptions struct {
	DialogTimeout time.Duration
	// MaxHold bounds spoken hold durations; zero means domain.DefaultMaxHold.
	MaxHold time.Duration
}

type Dispatcher struct {
	store         *MacroStore
	resolver      *Resolver
	tracker       *ContextTracker
	clock         ports.Clock
	logger        *zap.Logger
	dialogTimeout time.Duration
	maxHold       time.Duration

	mu      sync.Mutex
	dialogs map[string]*Dialog
}

func NewDispatcher(store *MacroStore, resolver *Resolver, tracker *ContextTracker, clock ports.Clock, logger *zap.Logger, opts DispatcherOptions) *Dispatcher {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DialogTimeout <= 0 {
		opts.DialogTimeout = DefaultDialogTimeout
	}

	return &Dispatcher{
		store:         store,
		resolver:      resolver,
		tracker:       tracker,
		clock:         clock,
		logger:        logger,
		dialogTimeout: opts.DialogTimeout,
		maxHold:       opts.MaxHold,
		dialogs:       map[string]*Dialog{},
	}
}

// Handle turns one transcript into a result. It never fails: every outcome,
// including internal faults, is reported through the returned Result.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (result Result) {
	session := req.Session
	if session == "" {
		session = DefaultSession
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("dispatch panicked", zap.Any("panic", recovered), zap.String("session", session))
			result = Result{
				Intent:   domain.IntentUnrecognized,
				Response: responseDispatchFailure,
				Err:      fmt.Errorf("dispatch: %v", recovered),
			}
		}
	}()

	now := d.clock.Now()
	if dialog := d.activeDialog(session, now); dialog != nil {
		step := dialog.Advance(ctx, req.Transcript, now)
		if step.Stage == domain.StageComplete {
			d.endDialog(session, dialog)
		}
		return d.dialogResult(step, dialog.Draft())
	}

	intent := d.resolver.Resolve(req.Transcript, req.Suggestion)
	d.logger.Debug("dispatch",
		zap.String("session", session),
		zap.String("intent", string(intent.Kind())),
		zap.String("transcript", req.Transcript),
	)

	switch in := intent.(type) {
	case domain.ExecuteBuiltin:
		return d.executeBuiltin(in)
	case domain.ExecuteMacro:
		return d.executeMacro(ctx, in)
	case domain.RepeatLast:
		return d.repeatLast()
	case domain.StartMacroDefinition:
		return d.startDefinition(ctx, session, in, now)
	case domain.ManageMacro:
		return d.manage(ctx, in)
	case domain.Unrecognized:
		return Result{Intent: domain.IntentUnrecognized, Response: unrecognizedResponse(in.Candidates)}
	default:
		return Result{Intent: domain.IntentUnrecognized, Response: responseUnrecognized}
	}
}

// DialogStage reports the open dialog stage for a session, or "" when there
// is none.
func (d *Dispatcher) DialogStage(session string) domain.DraftStage {
	if session == "" {
		session = DefaultSession
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dialog, ok := d.dialogs[session]
	if !ok || dialog.Expired(d.clock.Now()) {
		return ""
	}
	return dialog.Stage()
}

func (d *Dispatcher) executeBuiltin(in domain.ExecuteBuiltin) Result {
	action := in.Action.Ref()
	d.tracker.Record(action)

	return Result{
		Intent:        domain.IntentExecuteBuiltin,
		Action:        &action,
		Response:      builtinResponse(in.Action),
		ContextUpdate: refPtr(action),
	}
}

func (d *Dispatcher) executeMacro(ctx context.Context, in domain.ExecuteMacro) Result {
	// The resolver matched against a snapshot; emit only what is still stored.
	macro, ok := d.store.Get(in.Macro.ID)
	if !ok {
		return Result{
			Intent:   domain.IntentExecuteMacro,
			Response: notFoundResponse(in.Macro.Trigger),
			Err:      fmt.Errorf("%w: %q", domain.ErrMacroNotFound, in.Macro.ID),
		}
	}

	action := macro.Ref()
	d.tracker.Record(action)

	if err := d.store.RecordUse(ctx, macro.ID); err != nil {
		d.logger.Warn("record macro use", zap.String("id", string(macro.ID)), zap.Error(err))
	}

	return Result{
		Intent:        domain.IntentExecuteMacro,
		Action:        &action,
		Response:      macroResponse(macro),
		ContextUpdate: refPtr(action),
		Macro:         &macro,
	}
}

func (d *Dispatcher) repeatLast() Result {
	action, ok := d.tracker.Recall()
	if ok && action.Source == domain.SourceMacro {
		current, exists := d.store.Get(action.MacroID)
		if !exists {
			d.tracker.Clear()
			ok = false
		} else {
			action = current.Ref()
		}
	}
	if !ok {
		return Result{Intent: domain.IntentRepeatLast, Response: responseNothingToRepeat}
	}

	return Result{Intent: domain.IntentRepeatLast, Action: &action, Response: responseRepeat}
}

func (d *Dispatcher) startDefinition(ctx context.Context, session string, in domain.StartMacroDefinition, now time.Time) Result {
	d.tracker.Clear()

	dialog := NewDialog(d.store, d.dialogTimeout, now)
	dialog.grammar = ActionGrammar{MaxHold: d.maxHold}
	dialog.normalize = d.resolver.Normalize
	step := DialogStep{Stage: dialog.Stage()}
	if in.Trigger != "" {
		step = dialog.Advance(ctx, in.Trigger, now)
	}
	if in.ActionText != "" && step.Stage == domain.StageAwaitingAction {
		step = dialog.Advance(ctx, in.ActionText, now)
	}

	d.mu.Lock()
	if dialog.Stage() == domain.StageComplete {
		delete(d.dialogs, session)
	} else {
		d.dialogs[session] = dialog
	}
	d.mu.Unlock()

	result := d.dialogResult(step, dialog.Draft())
	result.Intent = domain.IntentStartMacroDefinition
	return result
}

func (d *Dispatcher) dialogResult(step DialogStep, draft domain.Draft) Result {
	result := Result{Intent: domain.IntentDialog, Err: step.Err, Macro: step.Macro}
	if step.Stage != domain.StageComplete {
		result.DialogStage = step.Stage
	}

	switch {
	case step.Cancelled:
		result.Response = responseCancelled
	case step.Err != nil:
		result.Response = d.dialogErrorResponse(step.Err, draft)
	case step.Macro != nil:
		result.Response = createdResponse(*step.Macro)
	case step.Stage == domain.StageAwaitingAction:
		result.Response = askActionResponse(draft.Trigger)
	default:
		result.Response = responseAskTrigger
	}

	return result
}

func (d *Dispatcher) dialogErrorResponse(err error, draft domain.Draft) string {
	switch {
	case errors.Is(err, domain.ErrEmptyPhrase):
		return responseEmptyTrigger
	case errors.Is(err, domain.ErrUnparseableAction), errors.Is(err, domain.ErrUnknownKey):
		return responseUnparseable
	case errors.Is(err, domain.ErrAliasConflict):
		return conflictResponse(draft.Trigger)
	case errors.Is(err, domain.ErrMacroLimit):
		return limitResponse(d.store.Limit())
	default:
		d.logger.Error("macro definition failed", zap.String("trigger", draft.Trigger), zap.Error(err))
		return responseSaveFailed
	}
}

func (d *Dispatcher) manage(ctx context.Context, in domain.ManageMacro) Result {
	result := Result{Intent: domain.IntentManageMacro}

	switch in.Op {
	case domain.ManageList:
		result.Response = listResponse(slices.Collect(d.store.List()))
	case domain.ManageDelete:
		result.Response, result.Err = d.deleteMacro(ctx, in.Name)
	case domain.ManageRename:
		result.Response, result.Err = d.renameMacro(ctx, in.Name, in.NewName)
	default:
		result.Response = responseUnrecognized
	}

	return result
}

func (d *Dispatcher) deleteMacro(ctx context.Context, name string) (string, error) {
	if name == "" {
		return responseWhichDelete, nil
	}

	macro, ok := d.store.Lookup(name)
	if !ok {
		return notFoundResponse(name), nil
	}

	removed, err := d.store.Delete(ctx, string(macro.ID))
	if err != nil {
		d.logger.Error("delete macro", zap.String("id", string(macro.ID)), zap.Error(err))
		return responseDeleteFailed, err
	}
	if !removed {
		return notFoundResponse(name), nil
	}

	if last, ok := d.tracker.Recall(); ok && last.MacroID == macro.ID {
		d.tracker.Clear()
	}

	return deletedResponse(macro.Trigger), nil
}

func (d *Dispatcher) renameMacro(ctx context.Context, name, newName string) (string, error) {
	if name == "" || newName == "" {
		return responseWhichRename, nil
	}

	renamed, err := d.store.Rename(ctx, name, newName)
	switch {
	case err == nil:
		return renamedResponse(name, renamed.Trigger), nil
	case errors.Is(err, domain.ErrMacroNotFound):
		return notFoundResponse(name), err
	case errors.Is(err, domain.ErrAliasConflict):
		return renameConflictResponse(domain.NormalizePhrase(newName)), err
	case errors.Is(err, domain.ErrEmptyPhrase):
		return responseWhichRename, err
	default:
		d.logger.Error("rename macro", zap.String("name", name), zap.Error(err))
		return responseSaveFailed, err
	}
}

func (d *Dispatcher) activeDialog(session string, now time.Time) *Dialog {
	d.mu.Lock()
	defer d.mu.Unlock()

	dialog, ok := d.dialogs[session]
	if !ok {
		return nil
	}
	if dialog.Expired(now) {
		delete(d.dialogs, session)
		d.logger.Debug("macro dialog expired", zap.String("session", session), zap.Time("deadline", dialog.Deadline()))
		return nil
	}

	return dialog
}

func (d *Dispatcher) endDialog(session string, dialog *Dialog) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.dialogs[session] == dialog {
		delete(d.dialogs, session)
	}
}

func refPtr(action domain.ActionRef) *domain.ActionRef {
	clone := action.Clone()
	return &clone
}
