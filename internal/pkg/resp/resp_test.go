package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"telebbs/internal/pkg/errs"
)

func TestRespondSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil), Stats{Sessions: 3})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    Stats  `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != 0 || body.Message != "success" || body.Data.Sessions != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRespondErrorUsesCustomStatus(t *testing.T) {
	cases := []struct {
		code       int
		status     int
		retryAfter string
	}{
		{errs.ErrRateLimitExceeded, http.StatusTooManyRequests, "5"},
		{errs.ErrShuttingDown, http.StatusServiceUnavailable, "5"},
		{errs.ErrUnknown, http.StatusInternalServerError, ""},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, httptest.NewRequest(http.MethodGet, "/ws", nil), errs.NewError(tc.code))

		if rec.Code != tc.status {
			t.Fatalf("code %d: expected %d, got %d", tc.code, tc.status, rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
		}
		if got := rec.Header().Get("Retry-After"); got != tc.retryAfter {
			t.Fatalf("code %d: Retry-After = %q, want %q", tc.code, got, tc.retryAfter)
		}

		var body JSONResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Code != tc.code || body.Data != nil {
			t.Fatalf("unexpected body: %+v", body)
		}
	}
}

func TestRespondErrorNilIsUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
