package sqlexec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRetryExhausted matches an Error whose retry budget ran out while only
// transient failures occurred.
var ErrRetryExhausted = errors.New("retry budget exhausted on transient failures")

// Error is returned when a batch could not be committed.
type Error struct {
	Statements []string
	// Failed is the index of the failing statement, or -1 when the failure
	// happened outside a statement (lease, begin or commit).
	Failed    int
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to execute %d statement(s) after %d attempt(s)", len(e.Statements), e.Attempts)
	if e.Exhausted {
		b.WriteString(" (retry budget exhausted)")
	}
	if e.Failed >= 0 && e.Failed < len(e.Statements) {
		fmt.Fprintf(&b, " at statement %d [%s]", e.Failed+1, e.Statements[e.Failed])
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrRetryExhausted && e.Exhausted
}

// RollbackError reports a rollback that failed after a statement error. It
// takes the place of the statement error, which is kept as Cause.
type RollbackError struct {
	Err   error
	Cause error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (after: %v)", e.Err, e.Cause)
}

func (e *RollbackError) Unwrap() error { return e.Err }
