package commands

import (
	"errors"

	"github.com/petal-labs/lumen/core"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
	ExitJob        = 4
	ExitCanceled   = 130
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// ExitCode returns the process exit code for the error.
func (e *exitError) ExitCode() int { return e.code }

// ExitCode maps an error returned by Execute onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch core.Kind(err) {
	case nil:
		if err == nil {
			return ExitOK
		}
		return ExitValidation
	case core.ErrValidation:
		return ExitValidation
	case core.ErrHTTP, core.ErrEmptyResult:
		return ExitProvider
	case core.ErrNetwork, core.ErrTimeout:
		return ExitNetwork
	case core.ErrJobFailed, core.ErrJobNotFound:
		return ExitJob
	case core.ErrCanceled:
		return ExitCanceled
	default:
		return ExitValidation
	}
}

// withExitCode wraps a gateway error so Execute reports its exit code.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitCodeFor(err), err: err}
}
