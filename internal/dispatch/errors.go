package dispatch

import (
	"github.com/openncd/netconfd/internal/backend"
	"github.com/openncd/netconfd/internal/ncerr"
)

// classifyBackendError turns a *backend.Error into the matching rpc-error
// tag (spec.md §7's back-end-error propagation rule), falling back to
// operation-failed for anything the back end reports as Other or for
// errors that never carried a backend.Code at all.
func classifyBackendError(err error) error {
	if err == nil {
		return nil
	}
	be, ok := err.(*backend.Error)
	if !ok {
		return ncerr.AsRPCError(err)
	}
	switch be.Code {
	case backend.NotFound, backend.DataMissing:
		return ncerr.DataMissing(ncerr.WithMessage(be.Message))
	case backend.DataExists:
		return ncerr.DataExists(ncerr.WithMessage(be.Message))
	case backend.UnknownModel:
		return ncerr.InvalidValue(ncerr.WithMessage(be.Message))
	case backend.ValidationFailed:
		return ncerr.OperationFailed(ncerr.WithMessage(be.Message))
	default:
		return ncerr.OperationFailed(ncerr.WithMessage(be.Message))
	}
}
