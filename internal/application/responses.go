package application

import (
	"fmt"
	"strings"

	"github.com/bnema/roland/internal/domain"
)

const (
	responseUnrecognized    = "I didn't recognize that command, Commander."
	responseRepeat          = "Repeating last command, Commander."
	responseNothingToRepeat = "No previous command to repeat, Commander."
	responseNoMacros        = "You haven't created any macros yet, Commander."
	responseAskTrigger      = "What phrase should trigger the macro, Commander?"
	responseEmptyTrigger    = "I didn't catch a trigger phrase, Commander. What should I listen for?"
	responseUnparseable     = "I couldn't understand those keys, Commander. Try 'press C' or 'hold B for 2 seconds'."
	responseCancelled       = "Macro creation cancelled, Commander."
	responseSaveFailed      = "I couldn't save that macro, Commander."
	responseDeleteFailed    = "I couldn't delete that macro, Commander."
	responseWhichDelete     = "Which macro should I delete, Commander?"
	responseWhichRename     = "Which macro should I rename, and to what, Commander?"
	responseDispatchFailure = "Something went wrong handling that command, Commander."
	builtinResponseFormat   = "%s, Commander."
)

func builtinResponse(action domain.KeybindAction) string {
	if action.Response != "" {
		return action.Response
	}
	return fmt.Sprintf(builtinResponseFormat, strings.ReplaceAll(action.Name, "_", " "))
}

func macroResponse(macro domain.Macro) string {
	if macro.Response != "" {
		return macro.Response
	}
	return fmt.Sprintf("Executing %s macro, Commander.", macro.Trigger)
}

func createdResponse(macro domain.Macro) string {
	return fmt.Sprintf("Macro created, Commander. Say '%s' to activate it.", macro.Trigger)
}

func askActionResponse(trigger string) string {
	return fmt.Sprintf("What should '%s' do, Commander? Say press, hold, or combo followed by the keys.", trigger)
}

func conflictResponse(phrase string) string {
	return fmt.Sprintf("'%s' is already in use, Commander. The macro was not saved.", phrase)
}

func limitResponse(limit int) string {
	return fmt.Sprintf("Maximum number of macros (%d) reached, Commander.", limit)
}

func deletedResponse(name string) string {
	return fmt.Sprintf("Macro '%s' has been removed, Commander.", name)
}

func notFoundResponse(name string) string {
	return fmt.Sprintf("I couldn't find a macro named '%s', Commander.", name)
}

func renamedResponse(oldName, newName string) string {
	return fmt.Sprintf("Macro '%s' is now '%s', Commander.", oldName, newName)
}

func renameConflictResponse(phrase string) string {
	return fmt.Sprintf("'%s' is already in use, Commander. The macro keeps its name.", phrase)
}

func listResponse(macros []domain.Macro) string {
	if len(macros) == 0 {
		return responseNoMacros
	}

	triggers := make([]string, 0, len(macros))
	for _, macro := range macros {
		triggers = append(triggers, macro.Trigger)
	}

	noun := "macros"
	if len(macros) == 1 {
		noun = "macro"
	}

	return fmt.Sprintf("You have %d %s, Commander: %s.", len(macros), noun, strings.Join(triggers, ", "))
}

func unrecognizedResponse(candidates []string) string {
	switch len(candidates) {
	case 0, 1:
		return responseUnrecognized
	default:
		quoted := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			quoted = append(quoted, "'"+candidate+"'")
		}
		return fmt.Sprintf("%s Did you mean %s?", responseUnrecognized, joinOr(quoted))
	}
}

func joinOr(items []string) string {
	if len(items) <= 1 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}
