package items

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition reports a status change the lifecycle forbids.
var ErrIllegalTransition = errors.New("illegal status transition")

type statusTransition struct {
	from Status
	to   Status
}

var allowedTransitions = map[statusTransition]struct{}{
	{from: StatusNew, to: StatusScreened}:      {},
	{from: StatusScreened, to: StatusPromoted}: {},
	{from: StatusScreened, to: StatusIgnored}:  {},
	{from: StatusError, to: StatusNew}:         {},
}

// TransitionError names the rejected change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status %s -> %s not allowed", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// ErrorKind classifies the failure for status mapping.
func (e *TransitionError) ErrorKind() string { return "validation" }

// Transition checks that an item may move from one status to another.
// Any status may move to error; error may return to new for a requeue.
func Transition(from, to Status) error {
	if _, ok := statusSet[to]; !ok {
		return &TransitionError{From: from, To: to}
	}
	if to == StatusError {
		return nil
	}
	if _, ok := allowedTransitions[statusTransition{from: from, to: to}]; ok {
		return nil
	}
	return &TransitionError{From: from, To: to}
}
