// Package ledger holds the group financial ledger rules: money
// arithmetic, due-date rollover, the member contribution schedule and
// balance aggregation. It is pure logic over the model types and knows
// nothing about HTTP or the database.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError reports malformed input: a non-positive amount, an
// out-of-range due day, an invalid pause window.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent group, member, contribution, expense
// or poll.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// DuplicateMemberError reports a (user, group) membership that already
// exists.
type DuplicateMemberError struct {
	UserID  uuid.UUID
	GroupID uuid.UUID
}

func (e *DuplicateMemberError) Error() string {
	return "user is already a member of this group"
}

// InvalidTransitionError reports a state-machine precondition
// violation, such as resuming a member who is not paused.
type InvalidTransitionError struct {
	Msg string
}

func (e *InvalidTransitionError) Error() string { return e.Msg }

func NewInvalidTransitionError(format string, args ...interface{}) *InvalidTransitionError {
	return &InvalidTransitionError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports a caller lacking admin or owner rights.
// The HTTP layer decides authorization; the ledger raises this only
// where a rule is inseparable from the data, e.g. expense deletion.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }
