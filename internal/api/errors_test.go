package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_Format(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, context.Background(), http.StatusNotFound, ErrCodeMissionNotFound, "Mission not found")

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error body: %v", err)
	}
	if resp.Error.Code != ErrCodeMissionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeMissionNotFound, resp.Error.Code)
	}
	if resp.Error.Message != "Mission not found" {
		t.Errorf("unexpected message %q", resp.Error.Message)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeMissionNotFound, http.StatusNotFound},
		{ErrCodeContributorNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeRefreshTimeout, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"unknown_code", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatusCodeMapping(tt.code); got != tt.want {
				t.Errorf("StatusCodeMapping(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}
