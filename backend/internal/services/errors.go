package services

import (
	"errors"
	"fmt"

	"github.com/Doumi-Athmane/tasks-managment/backend/internal/models"

	"github.com/gofrs/uuid"
)

// Error taxonomy surfaced by the services layer. Handlers map these to HTTP
// status codes; the services never translate them further or retry.
var (
	// ErrNotFound: the referenced task or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument: malformed or missing required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidTransition: the requested status transition is not legal
	// from the task's current status. State is left untouched.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrBusy: the per-task lock could not be acquired in time. Retryable;
	// retry policy belongs to the caller.
	ErrBusy = errors.New("task is busy")
)

// TransitionError reports an illegal lifecycle transition with enough
// context to render a user-facing message.
type TransitionError struct {
	TaskID    uuid.UUID
	Current   models.Status
	Attempted string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s task %s: status is %s", e.Attempted, e.TaskID, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
