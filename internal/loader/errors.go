package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound is returned when an id has no record and no dynamic
	// resources that could provide one.
	ErrModuleNotFound = errors.New("module not found")
	// ErrFactoryFailed marks a module whose factory failed.
	ErrFactoryFailed = errors.New("module factory failed")
)

// FactoryError is the failure stored on a Failed record. The same value is
// returned to every later require of the module.
type FactoryError struct {
	ID  string
	Err error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("module '%s': factory failed: %v", e.ID, e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFactoryFailed) hold.
func (e *FactoryError) Is(target error) bool { return target == ErrFactoryFailed }

func notFound(id string) error {
	return fmt.Errorf("module '%s': %w", id, ErrModuleNotFound)
}
