package validator

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError describes a single failed rule.
type ValidationError struct {
	Field   string
	Message string
	Values  map[string]any
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is the set of failures returned by Apply, in rule order.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty reports whether there are no failures.
func (e ValidationErrors) IsEmpty() bool {
	return len(e) == 0
}

// Has reports whether field failed at least one rule.
func (e ValidationErrors) Has(field string) bool {
	return slices.ContainsFunc(e, func(v ValidationError) bool { return v.Field == field })
}

// First returns the first failure.
func (e ValidationErrors) First() (ValidationError, bool) {
	if len(e) == 0 {
		return ValidationError{}, false
	}
	return e[0], true
}

// IsValidationError reports whether err carries validation failures.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// Rule pairs a predicate with the error reported when it returns false.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply evaluates every rule and returns ValidationErrors, or nil when all pass.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if r.Check != nil && !r.Check() {
			errs = append(errs, r.Error)
		}
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}

// When returns rule if cond holds, otherwise a rule that always passes.
// Use it for optional fields.
func When(cond bool, rule Rule) Rule {
	if !cond {
		return Rule{Check: func() bool { return true }}
	}
	return rule
}

// Required fails on blank strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)},
	}
}

// ValidEmail checks for a local part, an @, and a dotted domain without whitespace.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool { return emailRegex.MatchString(value) },
		Error: ValidationError{Field: field, Message: "Invalid email format"},
	}
}

// MaxLen fails when value is longer than n runes.
func MaxLen(field, value string, n int) Rule {
	return Rule{
		Check: func() bool { return utf8.RuneCountInString(value) <= n },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be at most %d characters", field, n),
			Values:  map[string]any{"max": n},
		},
	}
}

// InRange fails when value lies outside [lo, hi].
func InRange[T cmp.Ordered](field string, value, lo, hi T) Rule {
	return Rule{
		Check: func() bool { return value >= lo && value <= hi },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be between %v and %v", field, lo, hi),
			Values:  map[string]any{"min": lo, "max": hi},
		},
	}
}

// Positive fails when value is not greater than zero.
func Positive[T cmp.Ordered](field string, value T) Rule {
	var zero T
	return Rule{
		Check: func() bool { return value > zero },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("%s must be positive", field)},
	}
}

// OneOf fails when value is not among allowed.
func OneOf[T comparable](field string, value T, allowed ...T) Rule {
	return Rule{
		Check: func() bool { return slices.Contains(allowed, value) },
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be one of %v", field, allowed),
			Values:  map[string]any{"allowed": allowed},
		},
	}
}
