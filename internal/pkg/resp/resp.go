/*
Package resp writes the JSON responses of the HTTP side-channel.

Every body is the same envelope: a business code from the errs package (0 on
success), a message, and an optional payload. The payloads the side-channel
serves are declared here as well.
*/
package resp

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"telebbs/internal/pkg/errs"
	"telebbs/internal/pkg/logx"
)

// retryAfterSeconds is advertised on responses that ask the client to come back later.
const retryAfterSeconds = 5

// JSONResponse is the envelope of every response.
type JSONResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Health is the payload of the liveness endpoint.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Stats is the payload of the live statistics endpoint.
type Stats struct {
	// Sessions is the number of terminals registered with the broadcast hub.
	Sessions int `json:"sessions"`
}

// RespondJSON encodes payload with the given status.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response",
			"http_status", httpStatus,
			"request_id", middleware.GetReqID(r.Context()),
		)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)
	if _, err := w.Write(body); err != nil {
		logx.Warn("Failed to write JSON response", "error", err.Error())
	}
}

// RespondSuccess sends data with HTTP 200.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{Message: "success", Data: data})
}

// RespondError sends customErr with its HTTP status. Rate-limit and
// unavailable responses carry a Retry-After header.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	switch customErr.Status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}

	RespondJSON(w, r, customErr.Status, JSONResponse{
		Code:    customErr.Code,
		Message: customErr.Message,
	})
}
