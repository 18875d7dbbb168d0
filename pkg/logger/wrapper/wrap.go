package wrap

import (
	"context"
	"errors"
)

// ctxError carries the log fields that were known where an error happened,
// so the layer that finally logs it can report the device or user involved.
type ctxError struct {
	err    error
	logCtx LogCtx
}

func (e *ctxError) Error() string { return e.err.Error() }

func (e *ctxError) Unwrap() error { return e.err }

// Error wraps err with the LogCtx carried by ctx. Wrapping an already wrapped
// error records the newer context on the outer layer.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	return &ctxError{
		err:    err,
		logCtx: FromContext(ctx),
	}
}

// ErrorCtx returns ctx with the LogCtx stored in err, if any.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *ctxError
	if errors.As(err, &e) && e != nil {
		return context.WithValue(ctx, LogCtxKey, e.logCtx)
	}
	return ctx
}

// Is reports whether err carries log context.
func Is(err error) bool {
	var e *ctxError
	return errors.As(err, &e)
}
