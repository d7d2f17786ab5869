package domain

import "errors"

// Process exit codes, one per error class. Every error is fatal to the
// current run; none of them leaves persisted state corrupted, so a
// scheduler can always re-trigger the run as-is.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
	ExitFetch   = 3
	ExitState   = 4
	ExitPublish = 5
)

// ConfigError marks invalid or missing run configuration or
// credentials, detected before any network call is made.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return "config: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError marks an unreachable or unparseable source. The whole
// fetch fails; no items are processed and state is untouched.
type FetchError struct{ Err error }

func (e *FetchError) Error() string { return "fetch: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// StateError marks an unreadable or unwritable dedup store. A missing
// state file is not a StateError; an existing file that cannot be
// parsed is, and is surfaced rather than treated as empty.
type StateError struct{ Err error }

func (e *StateError) Error() string { return "state: " + e.Err.Error() }
func (e *StateError) Unwrap() error { return e.Err }

// PublishError marks a delivery failure after the retry budget is
// spent, or a terminal rejection by the destination.
type PublishError struct{ Err error }

func (e *PublishError) Error() string { return "publish: " + e.Err.Error() }
func (e *PublishError) Unwrap() error { return e.Err }

// ExitCode maps an error chain to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		configErr  *ConfigError
		fetchErr   *FetchError
		stateErr   *StateError
		publishErr *PublishError
	)

	switch {
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &fetchErr):
		return ExitFetch
	case errors.As(err, &stateErr):
		return ExitState
	case errors.As(err, &publishErr):
		return ExitPublish
	}

	return ExitFailure
}
