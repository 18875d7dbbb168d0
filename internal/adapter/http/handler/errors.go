package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/validator"
)

func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}

	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// failedValidationResponse returns 422 UnprocessableEntity with the field errors.
func failedValidationResponse(w http.ResponseWriter, errors map[string]string) {
	errorResponse(w, http.StatusUnprocessableEntity, errors)
}

// badRequestResponse returns 400 BadRequest.
func badRequestResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusBadRequest, message)
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusInternalServerError, message)
}

// serviceError maps an error returned by a service to a response. Server
// faults are logged at error level, client faults at debug.
func serviceError(ctx context.Context, w http.ResponseWriter, l logger.Logger, msg string, err error) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		failedValidationResponse(w, verr.Errors)
		return
	}

	code := GetCode(err)
	if code >= http.StatusInternalServerError {
		l.Error(wrap.ErrorCtx(ctx, err), msg, err)
	} else {
		l.Debug(ctx, msg, "error", err.Error(), "status", code)
	}

	errorResponse(w, code, publicMessage(err))
}
