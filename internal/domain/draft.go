package domain

import "time"

type DraftStage string

const (
	StageAwaitingTrigger DraftStage = "awaiting_trigger"
	StageAwaitingAction  DraftStage = "awaiting_action"
	StageComplete        DraftStage = "complete"
)

// Draft is the partially captured macro of an open definition dialog.
type Draft struct {
	Trigger  string
	Keys     []string
	Kind     ActionKind
	Duration time.Duration
	Stage    DraftStage
}

type ContextEntry struct {
	Action      ActionRef
	ExpressedAt time.Time
	TTL         time.Duration
}

func (e ContextEntry) Live(now time.Time) bool {
	return now.Sub(e.ExpressedAt) <= e.TTL
}
