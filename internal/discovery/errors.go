package discovery

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSchemas is the cause when filtering leaves nothing to discover.
	ErrNoSchemas = errors.New("no schemas left after filtering")
	// ErrNullable is the cause when a column reports an unknown nullable code.
	ErrNullable = errors.New("unexpected nullable value")
	// ErrEnumProbe is the cause when the enum constants of a column cannot be
	// read.
	ErrEnumProbe = errors.New("cannot read enum constants")
)

// Error is returned when discovery fails. No partial result accompanies it.
type Error struct {
	// Dbms is the id of the dbms being discovered.
	Dbms string
	// Discarded lists the schema names dropped by exclusion or filtering.
	// It is set when the failure is ErrNoSchemas.
	Discarded []string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("discovery of %s failed: %v", e.Dbms, e.Err)
	if len(e.Discarded) > 0 {
		msg += fmt.Sprintf(" (discarded schemas: %s)", strings.Join(e.Discarded, ", "))
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
