package effects

import (
	"context"
	"errors"
	"net/http"

	"github.com/noah-isme/student-records/internal/client/state"
	appErrors "github.com/noah-isme/student-records/pkg/errors"
)

type failure struct {
	message string
	kind    state.ErrorKind
	fields  map[string]string
}

// classify is the only place gateway errors become container error kinds.
func classify(err error) failure {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		f := failure{message: appErr.Message, kind: kindForStatus(appErr.Status)}
		if f.message == "" {
			f.message = http.StatusText(appErr.Status)
		}
		if f.kind == state.ErrorValidation {
			f.fields = appErr.Details
			if appErr.Status == http.StatusConflict && len(f.fields) == 0 {
				f.fields = map[string]string{"email": f.message}
			}
		}
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failure{message: "request timed out", kind: state.ErrorTransport}
	}
	return failure{message: err.Error(), kind: state.ErrorTransport}
}

func kindForStatus(status int) state.ErrorKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return state.ErrorValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return state.ErrorAuth
	case http.StatusNotFound:
		return state.ErrorNotFound
	default:
		return state.ErrorTransport
	}
}
