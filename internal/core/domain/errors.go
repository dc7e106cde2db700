package domain

import "fmt"

// BootstrapError means the common transport client could not start; it
// is fatal at engine start and is returned as the top-level error of
// the initial probe call.
type BootstrapError struct {
	Err  error
	Bin  string
	Step string
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap failed at %s using %s: %v", e.Step, e.Bin, e.Err)
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

func NewBootstrapError(step, bin string, err error) *BootstrapError {
	return &BootstrapError{Step: step, Bin: bin, Err: err}
}
