package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrRoutingLoopExceeded is returned when a run reaches its iteration cap without reaching END.
var ErrRoutingLoopExceeded = errors.New("routing loop exceeded")

// ErrInvalidPartialUpdate is matched by InvalidPartialUpdateError.
var ErrInvalidPartialUpdate = errors.New("invalid partial update")

// ErrCheckpointIO is matched by CheckpointIOError.
var ErrCheckpointIO = errors.New("checkpoint io failure")

// ErrStepFailed is matched by StepFailure.
var ErrStepFailed = errors.New("step failed")

// ErrInvariantViolation is returned by State.Validate.
var ErrInvariantViolation = errors.New("state invariant violated")

// ErrUnknownStep is returned when the router selects a step that is not registered.
var ErrUnknownStep = errors.New("unknown step")

// ErrEmptyInput is returned when a submission carries no message text.
var ErrEmptyInput = errors.New("empty input")

// ErrInputTooLarge is returned when a submission exceeds the input size limit.
var ErrInputTooLarge = errors.New("input exceeds maximum allowed size")

// ErrInvalidUTF8 is returned when a submission is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")

// InvalidPartialUpdateError reports a step writing outside its declared contract.
// It is a programming error and aborts the run.
type InvalidPartialUpdateError struct {
	Step   string
	Field  FieldName
	Reason string
}

func (e *InvalidPartialUpdateError) Error() string {
	return fmt.Sprintf("step '%s' wrote field '%s': %s", e.Step, e.Field, e.Reason)
}

func (e *InvalidPartialUpdateError) Unwrap() error { return ErrInvalidPartialUpdate }

// CheckpointIOError wraps a store failure while persisting or loading a session.
type CheckpointIOError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *CheckpointIOError) Error() string {
	return fmt.Sprintf("checkpoint %s for session '%s': %v", e.Op, e.SessionID, e.Err)
}

func (e *CheckpointIOError) Unwrap() error { return e.Err }

func (e *CheckpointIOError) Is(target error) bool { return target == ErrCheckpointIO }

// StepFailure describes a failed or timed-out step attempt.
// The executor records it in the trace and keeps routing.
type StepFailure struct {
	Step    string
	Outcome Outcome
	Err     error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step '%s' %s: %v", e.Step, e.Outcome, e.Err)
}

func (e *StepFailure) Unwrap() error { return e.Err }

func (e *StepFailure) Is(target error) bool { return target == ErrStepFailed }
