package protocol

import "errors"

// Sentinel errors for the taxonomy in §7. Callers classify a failed
// transfer with errors.Is against these; phase-specific context is added
// with github.com/pkg/errors.Wrap at the point of failure, which preserves
// the chain for errors.Is/Unwrap.
var (
	// ErrRemoteStartupFailed indicates the sanity echo did not match, or a
	// short read occurred before Phase D began. The destination is not
	// modified beyond possible file creation.
	ErrRemoteStartupFailed = errors.New("remote startup failed")

	// ErrDestinationTooSmall indicates the agent reported a destination
	// smaller than the source size. No patches are sent in this case.
	ErrDestinationTooSmall = errors.New("destination too small")

	// ErrIntegrityMismatch indicates the whole-file digest returned by the
	// agent did not match the driver's running hash of the source.
	ErrIntegrityMismatch = errors.New("integrity mismatch")

	// ErrProtocolError indicates a short read where a full frame was
	// required, or a value outside the protocol's stated bounds (e.g. an
	// oversized dest_path_len or hash_name_len).
	ErrProtocolError = errors.New("protocol error")

	// ErrTransportBroken names a broken pipe while emitting patch frames.
	// Transfer does not return it: on a broken pipe the driver stops
	// emitting and proceeds to finalization, where the failure surfaces
	// as ErrIntegrityMismatch.
	ErrTransportBroken = errors.New("transport broken")
)

// PhaseError records which state-machine phase an error occurred in,
// satisfying §4.4's requirement that terminal errors surface the current
// phase name. It unwraps to the underlying error so errors.Is still works
// against the sentinels above.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return e.Phase + ": " + e.Err.Error()
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// inPhase annotates err, if non-nil, with the phase it occurred in.
func inPhase(phase string, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Err: err}
}
