package middleware

import (
	"encoding/json"
	"net/http"

	"go-presensi/internal/model"
	"go-presensi/pkg/apierror"
)

func jsonEncode(w http.ResponseWriter, value any) error {
	return json.NewEncoder(w).Encode(value)
}

func writeAPIError(w http.ResponseWriter, err *apierror.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	_ = jsonEncode(w, model.APIResponse{
		Status:  model.StatusError,
		Code:    err.Code,
		Message: err.Message,
	})
}
