package evo

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyCatalog    = errors.New("item catalog is empty")
	// ErrLengthMismatch is returned when a candidate's bit count differs from
	// the catalog size. It matches ErrInvalidArgument under errors.Is.
	ErrLengthMismatch = fmt.Errorf("%w: candidate length does not match catalog", ErrInvalidArgument)
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
