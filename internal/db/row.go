package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Row is one buffered result-set row keyed by upper-case column label.
type Row map[string]any

// NewRow builds a row from parallel label and value slices.
func NewRow(labels []string, values []any) Row {
	r := make(Row, len(labels))
	for i, l := range labels {
		r[strings.ToUpper(l)] = values[i]
	}
	return r
}

// Has reports whether the result set carried the label at all.
func (r Row) Has(label string) bool {
	_, ok := r[label]
	return ok
}

// String returns the value as a string; false when absent or NULL.
func (r Row) String(label string) (string, bool) {
	v, ok := r[label]
	if !ok || v == nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// ErrMissingValue is returned by RequiredInt for an absent or NULL value.
var ErrMissingValue = errors.New("missing value")

// RequiredInt is like Int but fails when the value is absent or NULL.
func (r Row) RequiredInt(label string) (int, error) {
	if !r.Has(label) {
		return 0, fmt.Errorf("%w: no %s column", ErrMissingValue, label)
	}
	if r[label] == nil {
		return 0, fmt.Errorf("%w: %s is NULL", ErrMissingValue, label)
	}
	return r.Int(label)
}

// Int returns the value as an int; NULL and absent read as 0.
func (r Row) Int(label string) (int, error) {
	v, ok := r[label]
	if !ok || v == nil {
		return 0, nil
	}
	switch x := v.(type) {
	case int:
		return x, nil
	case int8:
		return int(x), nil
	case int16:
		return int(x), nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint8:
		return int(x), nil
	case uint16:
		return int(x), nil
	case uint32:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float32:
		return int(x), nil
	case float64:
		return int(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseInt(label, x)
	case []byte:
		return parseInt(label, string(x))
	default:
		return parseInt(label, fmt.Sprint(x))
	}
}

func parseInt(label, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("column %s: cannot read %q as integer", label, s)
	}
	return n, nil
}

// Bool returns the value as a bool. Numbers are true when non-zero; strings
// accept the usual spellings plus YES/NO.
func (r Row) Bool(label string) (bool, error) {
	v, ok := r[label]
	if !ok || v == nil {
		return false, nil
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	s, _ := r.String(label)
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "Y", "TRUE", "T":
		return true, nil
	case "NO", "N", "FALSE", "F", "":
		return false, nil
	}
	n, err := r.Int(label)
	if err != nil {
		return false, fmt.Errorf("column %s: cannot read %q as boolean", label, s)
	}
	return n != 0, nil
}
