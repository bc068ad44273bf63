// Package fault defines the error taxonomy shared by the solvers, the
// profile builder and the escapement synthesizer. Every failure reaches
// the caller as a typed value; nothing is silently defaulted.
package fault

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure.
type Kind int

const (
	KindSearchExhausted       Kind = iota + 1 // no candidate within tolerance
	KindInvalidConstraint                     // malformed input (ranges, tolerances, families)
	KindNumericNonConvergence                 // bounded iteration ran out
	KindGeometricDegeneracy                   // parallel rays, zero-length directions
)

func (k Kind) String() string {
	switch k {
	case KindSearchExhausted:
		return "search exhausted"
	case KindInvalidConstraint:
		return "invalid constraint"
	case KindNumericNonConvergence:
		return "numeric non-convergence"
	case KindGeometricDegeneracy:
		return "geometric degeneracy"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels matched with errors.Is. Error values of the matching Kind
// report true against them.
var (
	ErrSearchExhausted       = errors.New("horologe: search exhausted")
	ErrInvalidConstraint     = errors.New("horologe: invalid constraint")
	ErrNumericNonConvergence = errors.New("horologe: numeric non-convergence")
	ErrGeometricDegeneracy   = errors.New("horologe: geometric degeneracy")
)

func (k Kind) sentinel() error {
	switch k {
	case KindSearchExhausted:
		return ErrSearchExhausted
	case KindInvalidConstraint:
		return ErrInvalidConstraint
	case KindNumericNonConvergence:
		return ErrNumericNonConvergence
	case KindGeometricDegeneracy:
		return ErrGeometricDegeneracy
	}
	return nil
}

// Error is a failure of a specific kind raised by a named operation.
type Error struct {
	Kind    Kind
	Op      string // e.g. "train.GoingTrain", "gearing.WheelAddendumFactor"
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Is reports whether target is the sentinel for this error's kind, or
// another *Error of the same kind.
func (e *Error) Is(target error) bool {
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind && other.Op == "" && other.Message == ""
	}
	return false
}

// SearchExhausted reports that a search produced no acceptable candidate.
func SearchExhausted(op, format string, args ...any) error {
	return &Error{Kind: KindSearchExhausted, Op: op, Message: fmt.Sprintf(format, args...)}
}

// InvalidConstraint reports malformed caller input.
func InvalidConstraint(op, format string, args ...any) error {
	return &Error{Kind: KindInvalidConstraint, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NumericNonConvergence reports that a bounded iteration hit its cap.
func NumericNonConvergence(op, format string, args ...any) error {
	return &Error{Kind: KindNumericNonConvergence, Op: op, Message: fmt.Sprintf(format, args...)}
}

// GeometricDegeneracy reports a construction with no unique solution.
func GeometricDegeneracy(op, format string, args ...any) error {
	return &Error{Kind: KindGeometricDegeneracy, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind carried by err, or 0 when err is not a fault.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
