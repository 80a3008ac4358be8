package features

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCorpus is returned by Fit when no row survives cleaning.
	ErrEmptyCorpus = errors.New("features: no usable rows in fit corpus")
	// ErrMalformedInput is matched by every *InputError.
	ErrMalformedInput = errors.New("features: malformed input")
	// ErrNotFitted is the panic value for transforms before Fit.
	ErrNotFitted = errors.New("features: transform called before fit")
	// ErrAlreadyFitted is returned when a one-shot component is fit twice.
	ErrAlreadyFitted = errors.New("features: already fitted")
)

// InputError reports a field of an inference record that could not be encoded.
type InputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("features: invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrMalformedInput) match any InputError.
func (e *InputError) Is(target error) bool {
	return target == ErrMalformedInput
}
