package ledger

import "errors"

// ErrUnavailable is matched by every failure to reach or query the store.
var ErrUnavailable = errors.New("could not reach the data source")

// StoreError wraps a driver or connection failure for one store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "ledger " + e.Op + ": " + ErrUnavailable.Error() + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) true for every StoreError.
func (e *StoreError) Is(target error) bool { return target == ErrUnavailable }

// Unavailable wraps err as a StoreError, or returns nil for a nil err.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
