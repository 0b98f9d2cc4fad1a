package graph

import (
	"github.com/pkg/errors"
)

var (
	// ErrConfig matches every configuration error returned by this package
	ErrConfig = errors.New("graph configuration error")

	// ErrUnsupportedOperator is returned for a filter operator outside the known set
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrInvalidCondition is returned for a malformed filter condition
	ErrInvalidCondition = errors.New("invalid filter condition")

	// ErrInvalidLimit is returned for a negative record limit
	ErrInvalidLimit = errors.New("invalid record limit")

	// ErrMissingColumn is returned when the source or target column is not named
	ErrMissingColumn = errors.New("column name required")
)

// configError tags its cause as a configuration error. The cause stays
// reachable, so errors.Is matches both ErrConfig and the underlying sentinel.
type configError struct {
	cause error
}

func (e *configError) Error() string { return e.cause.Error() }

func (e *configError) Unwrap() error { return e.cause }

func (e *configError) Is(target error) bool { return target == ErrConfig }

func configErr(err error) error {
	if err == nil || errors.Is(err, ErrConfig) {
		return err
	}
	return &configError{cause: err}
}

// ConfigError marks err as a configuration error
func ConfigError(err error) error {
	return configErr(err)
}
