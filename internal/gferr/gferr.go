// Package gferr defines the sentinel error kinds every other package wraps
// with github.com/pkg/errors, in the style the xtaci-kcptun client uses
// (errors.Wrap(err, "context")) rather than fmt.Errorf("%w").
package gferr

import "errors"

// Kinds of failure a gauge-fixing run can report. Callers wrap these with
// errors.Wrap to attach the specific context (which option, which file,
// which rank).
var (
	// ErrInvalidOption marks a configuration value outside its valid range
	// (e.g. omega outside (1,2), a negative lattice extent).
	ErrInvalidOption = errors.New("invalid option")

	// ErrFormat marks a malformed or unrecognized on-disk gauge-field file.
	ErrFormat = errors.New("malformed gauge field file")

	// ErrRank marks a multi-rank coordination failure: a failed collective,
	// a lost peer, a halo exchange that never completed.
	ErrRank = errors.New("rank coordination failure")

	// ErrConvergence marks a run that exhausted its iteration budget
	// without reaching the requested precision.
	ErrConvergence = errors.New("gauge fixing did not converge")

	// ErrIO marks a failure reading or writing a gauge-field file or
	// configuration.
	ErrIO = errors.New("i/o failure")
)
