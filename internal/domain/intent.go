package domain

type IntentKind string

const (
	IntentExecuteBuiltin       IntentKind = "execute_builtin"
	IntentExecuteMacro         IntentKind = "execute_macro"
	IntentRepeatLast           IntentKind = "repeat_last"
	IntentStartMacroDefinition IntentKind = "start_macro_definition"
	IntentManageMacro          IntentKind = "manage_macro"
	IntentUnrecognized         IntentKind = "unrecognized"
	IntentDialog               IntentKind = "dialog"
)

// Intent is the closed set of resolver outcomes. Only types in this package
// implement it.
type Intent interface {
	Kind() IntentKind
	isIntent()
}

type ExecuteBuiltin struct {
	Action KeybindAction
	Alias  string
}

type ExecuteMacro struct {
	Macro Macro
	Alias string
}

type RepeatLast struct{}

// StartMacroDefinition may already carry the trigger and action text when the
// utterance spelled them out, e.g. "when I say panic mode, press C".
type StartMacroDefinition struct {
	Trigger    string
	ActionText string
}

type ManageOp string

const (
	ManageList   ManageOp = "list"
	ManageDelete ManageOp = "delete"
	ManageRename ManageOp = "rename"
)

type ManageMacro struct {
	Op      ManageOp
	Name    string
	NewName string
}

type Unrecognized struct {
	Transcript string
	Candidates []string
}

func (ExecuteBuiltin) Kind() IntentKind       { return IntentExecuteBuiltin }
func (ExecuteMacro) Kind() IntentKind         { return IntentExecuteMacro }
func (RepeatLast) Kind() IntentKind           { return IntentRepeatLast }
func (StartMacroDefinition) Kind() IntentKind { return IntentStartMacroDefinition }
func (ManageMacro) Kind() IntentKind          { return IntentManageMacro }
func (Unrecognized) Kind() IntentKind         { return IntentUnrecognized }

func (ExecuteBuiltin) isIntent()       {}
func (ExecuteMacro) isIntent()         {}
func (RepeatLast) isIntent()           {}
func (StartMacroDefinition) isIntent() {}
func (ManageMacro) isIntent()          {}
func (Unrecognized) isIntent()         {}

// Suggestion is the optional structured hint produced by the language model.
type Suggestion struct {
	Label string
	Slots map[string]string
}

func (s *Suggestion) Slot(name string) string {
	if s == nil || s.Slots == nil {
		return ""
	}
	return s.Slots[name]
}

const (
	LabelRepeat      = "repeat"
	LabelCreateMacro = "create_macro"
	LabelListMacros  = "list_macros"
	LabelDeleteMacro = "delete_macro"
	LabelRenameMacro = "rename_macro"
	LabelExecute     = "execute"
	LabelUnknown     = "unknown"
)
