// Package api exposes the directory as JSON under /api/v1.
//
// Errors share one shape:
//
//	{ "error": "message", "field": "phone", "fields": {"phone": "..."}, "reference": "ab12cd34" }
//
// Validation failures are 400 with field details, a duplicate phone is 409,
// an unknown id is 404, and store failures are 503 carrying a reference id
// that also appears in the server log.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"go.uber.org/zap"
)

// maxBody caps JSON request bodies.
const maxBody = 64 << 10

type Handler struct {
	Svc *directory.Service
	Log *zap.Logger
}

func NewHandler(svc *directory.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Svc: svc,
		Log: logger,
	}
}

type errorBody struct {
	Error     string            `json:"error"`
	Field     string            `json:"field,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Reference string            `json:"reference,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a directory error to its status and body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if ve, ok := directory.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  ve.Message(),
			Field:  ve.Field(),
			Fields: ve.ByField(),
		})
		return
	}
	switch {
	case errors.Is(err, directory.ErrDuplicatePhone):
		writeJSON(w, http.StatusConflict, errorBody{Error: directory.ErrDuplicatePhone.Error(), Field: "phone"})
	case errors.Is(err, directory.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		ref := uierrors.NewReference()
		h.Log.Error("api: "+op,
			zap.String("error_ref", ref),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:     "The operation failed. Please check your connection or configuration and try again.",
			Reference: ref,
		})
	}
}

// decode reads a JSON body into dst. It writes the 400 itself and reports
// false when the body is unusable.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		msg := "Request body must be a JSON object."
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty."
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
		return false
	}
	return true
}
