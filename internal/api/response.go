package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/darila/internal/lifecycle"
	"github.com/erazemk/darila/internal/model"
)

// Codes for failures that happen before the core is reached.
const (
	codeUnauthorized = "unauthorized"
	codeConflict     = "conflict"
	codeRateLimited  = "rate_limited"
)

// reasonStatus maps core reason codes to HTTP statuses.
var reasonStatus = map[string]int{
	model.ReasonNotFound:          http.StatusNotFound,
	model.ReasonInvalidTransition: http.StatusConflict,
	model.ReasonForbidden:         http.StatusForbidden,
	model.ReasonStaleState:        http.StatusConflict,
	model.ReasonItemNotAvailable:  http.StatusConflict,
	model.ReasonInvalidInput:      http.StatusBadRequest,
	model.ReasonPersistence:       http.StatusInternalServerError,
}

// statusCode picks the code for errors raised by the handlers themselves.
var statusCode = map[int]string{
	http.StatusBadRequest:          model.ReasonInvalidInput,
	http.StatusUnauthorized:        codeUnauthorized,
	http.StatusForbidden:           model.ReasonForbidden,
	http.StatusNotFound:            model.ReasonNotFound,
	http.StatusConflict:            codeConflict,
	http.StatusTooManyRequests:     codeRateLimited,
	http.StatusInternalServerError: model.ReasonPersistence,
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// codeSetter is implemented by response writers that record the error code
// of a failed request.
type codeSetter interface {
	setErrorCode(code string)
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response. The code is derived from status.
func jsonError(w http.ResponseWriter, status int, message string) {
	code, ok := statusCode[status]
	if !ok {
		code = model.ReasonPersistence
	}
	writeError(w, status, code, message)
}

// coreError writes the response for an error returned by the core. Faults
// are logged and hidden from the client; rejections are passed through.
func coreError(w http.ResponseWriter, err error) {
	if !lifecycle.IsRejection(err) {
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, model.ReasonPersistence, "internal error")
		return
	}
	code := model.Reason(err)
	writeError(w, reasonStatus[code], code, err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	if cs, ok := w.(codeSetter); ok {
		cs.setErrorCode(code)
	}
	jsonResponse(w, status, errorBody{Error: message, Code: code})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
