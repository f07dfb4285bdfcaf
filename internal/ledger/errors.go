package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Ledger mutations wraps one of these
// (or a store error), so callers branch with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrDependency = errors.New("dependency error")
	ErrNotFound   = errors.New("not found")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func customerNotFound(id string) error {
	return fmt.Errorf("%w: customer %q", ErrNotFound, id)
}

func transactionNotFound(id string) error {
	return fmt.Errorf("%w: transaction %q", ErrNotFound, id)
}
