package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Status:  model.StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// writeError renders err in the error envelope. Details never reach the
// client; they are logged instead.
func writeError(w http.ResponseWriter, err error) {
	apiErr := toAPIError(err)

	if apiErr.HTTPStatus >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err.Error())
	} else if apiErr.Details != "" {
		slog.Debug("request rejected", "code", apiErr.Code, "details", apiErr.Details)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Status:  model.StatusError,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}

func toAPIError(err error) *apierror.APIError {
	var apiErr *apierror.APIError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &maxBytesErr):
		return apierror.New(apierror.CodePayloadTooLarge, "request body is too large", err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.NotFound("user not found", "")
	case errors.Is(err, model.ErrDuplicateEmail):
		return apierror.DuplicateEmail("")
	case errors.Is(err, model.ErrPresensiNotFound):
		return apierror.NotFound("presensi not found", "")
	case errors.Is(err, model.ErrAlreadyCheckedIn):
		return apierror.AlreadyCheckedIn()
	case errors.Is(err, model.ErrNoOpenSession):
		return apierror.NoOpenSession()
	default:
		return apierror.New(apierror.CodeInternal, "Unexpected server error", err.Error(), http.StatusInternalServerError)
	}
}
