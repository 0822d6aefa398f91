package domain

import "fmt"

// DuplicateCheckResult is the middleware's view of existing tickets for a phone number.
type DuplicateCheckResult struct {
	Exists  bool            `json:"exists"`
	Count   int             `json:"count"`
	Tickets []TicketSummary `json:"tickets"`
	Error   string          `json:"error,omitempty"`
}

// WorkflowState enumerates the duplicate-confirmation states.
type WorkflowState string

const (
	WorkflowIdle       WorkflowState = "idle"
	WorkflowChecking   WorkflowState = "checking"
	WorkflowNoMatch    WorkflowState = "no_match"
	WorkflowWarning    WorkflowState = "warning"
	WorkflowCheckError WorkflowState = "check_error"
	WorkflowConfirmed  WorkflowState = "confirmed"
	WorkflowCancelled  WorkflowState = "cancelled"
)

var workflowTransitions = map[WorkflowState][]WorkflowState{
	WorkflowIdle:       {WorkflowChecking},
	WorkflowChecking:   {WorkflowNoMatch, WorkflowWarning, WorkflowCheckError},
	WorkflowNoMatch:    {WorkflowIdle},
	WorkflowWarning:    {WorkflowConfirmed, WorkflowCancelled},
	WorkflowCheckError: {WorkflowConfirmed, WorkflowCancelled},
	WorkflowConfirmed:  {WorkflowIdle},
	WorkflowCancelled:  {WorkflowIdle},
}

// CanTransition reports whether from -> to is a legal workflow step.
func CanTransition(from, to WorkflowState) bool {
	for _, next := range workflowTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AwaitingDecision reports whether the user must confirm or cancel.
func (s WorkflowState) AwaitingDecision() bool {
	return s == WorkflowWarning || s == WorkflowCheckError
}

// ErrInvalidTransition is returned for an illegal workflow step.
type ErrInvalidTransition struct {
	From WorkflowState
	To   WorkflowState
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot move duplicate workflow from %s to %s", e.From, e.To)
}

// DuplicateWorkflow holds the pending submission while the user decides.
// Only Idle, Warning and CheckError survive between interactions.
type DuplicateWorkflow struct {
	State   WorkflowState         `json:"state"`
	Pending *TicketPayload        `json:"pending_ticket,omitempty"`
	Result  *DuplicateCheckResult `json:"duplicate_check,omitempty"`
}

func (w *DuplicateWorkflow) move(to WorkflowState) error {
	from := w.State
	if from == "" {
		from = WorkflowIdle
	}
	if !CanTransition(from, to) {
		return ErrInvalidTransition{From: from, To: to}
	}
	w.State = to
	return nil
}

// Begin enters Checking for a submission with a phone number.
func (w *DuplicateWorkflow) Begin() error {
	return w.move(WorkflowChecking)
}

// Resolve applies the check result. An error wins over exists. Warning and
// CheckError keep the payload and result for the later decision; NoMatch
// returns straight to Idle.
func (w *DuplicateWorkflow) Resolve(payload TicketPayload, result DuplicateCheckResult) (WorkflowState, error) {
	next := WorkflowNoMatch
	switch {
	case result.Error != "":
		next = WorkflowCheckError
	case result.Exists:
		next = WorkflowWarning
	}
	if err := w.move(next); err != nil {
		return "", err
	}
	if next == WorkflowNoMatch {
		w.Reset()
		return WorkflowNoMatch, nil
	}
	w.Pending = &payload
	w.Result = &result
	return next, nil
}

// Confirm accepts the risk and hands back the stored payload without
// re-running the check.
func (w *DuplicateWorkflow) Confirm() (TicketPayload, error) {
	if w.Pending == nil {
		return TicketPayload{}, ErrInvalidTransition{From: w.State, To: WorkflowConfirmed}
	}
	payload := *w.Pending
	if err := w.move(WorkflowConfirmed); err != nil {
		return TicketPayload{}, err
	}
	return payload, nil
}

// Cancel discards the pending payload and result.
func (w *DuplicateWorkflow) Cancel() error {
	if err := w.move(WorkflowCancelled); err != nil {
		return err
	}
	w.Reset()
	return nil
}

// Reset returns to Idle with nothing pending.
func (w *DuplicateWorkflow) Reset() {
	w.State = WorkflowIdle
	w.Pending = nil
	w.Result = nil
}
