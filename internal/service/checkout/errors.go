package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownStage   = errors.New("unknown checkout stage")
	ErrStageLocked    = errors.New("checkout stage not reachable yet")
	ErrEmptyCart      = errors.New("cart is empty, nothing to checkout")
	ErrSubmitFailed   = errors.New("order submission failed, please retry")
	ErrNotSubmittable = errors.New("stage is not submitted through continue")
)

// LockedError reports the earliest stage whose staged state is missing.
type LockedError struct {
	Requested Stage
	Missing   Stage
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s requires %s to be completed first", e.Requested, e.Missing)
}

func (e *LockedError) Unwrap() error {
	return ErrStageLocked
}

// ValidationError maps field names to what is wrong with them.
type ValidationError struct {
	Stage  Stage
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", e.Stage, strings.Join(parts, "; "))
}
