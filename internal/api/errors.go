// Package api provides the HTTP handlers of the vidrank API and its
// standardized error envelope.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/vidrank/internal/discovery"
	"github.com/onnwee/vidrank/internal/middleware"
	"github.com/onnwee/vidrank/internal/youtube"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates input validation failure.
	ErrCodeValidation = "validation_error"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = "rate_limited"

	// ErrCodeConfig indicates the server is missing required configuration,
	// such as the YouTube API key.
	ErrCodeConfig = "config_error"

	// ErrCodeProvider indicates the upstream video platform failed.
	ErrCodeProvider = "provider_error"

	// ErrCodeQuotaExceeded indicates the daily YouTube Data API quota is spent.
	ErrCodeQuotaExceeded = "quota_exceeded"

	// ErrCodeTimeout indicates the request ran out of time upstream.
	ErrCodeTimeout = "timeout"

	// ErrCodeUnavailable indicates a backing service is unreachable.
	ErrCodeUnavailable = "service_unavailable"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response.
//
// Format: {"error": {"code": "error_code", "message": "Error description"}}
//
// The logging middleware records the code for 4xx and 5xx responses when
// ctx carries it:
//
//	ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeValidation)
//	api.WriteError(w, ctx, http.StatusBadRequest, api.ErrCodeValidation, "keyword is required")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.UpdateResponseContext(w, ctx)

	data, err := json.Marshal(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// writeCodedError sets the error code on the request context and writes the
// envelope with the code's mapped status.
func writeCodedError(w http.ResponseWriter, r *http.Request, code, message string) {
	ctx := middleware.SetErrorCode(r.Context(), code)
	WriteError(w, ctx, StatusCodeMapping(code), code, message)
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// StatusCodeMapping returns the HTTP status code for an error code.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeProvider:
		return http.StatusBadGateway
	case ErrCodeQuotaExceeded, ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeConfig, ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// classifyPipelineError maps a discovery error onto an error code and a
// client-safe message. Upstream error details stay in the logs.
func classifyPipelineError(err error) (code, message string) {
	switch {
	case errors.Is(err, discovery.ErrInvalidFilter), errors.Is(err, discovery.ErrInvalidTopN):
		return ErrCodeValidation, err.Error()
	case errors.Is(err, discovery.ErrNoKeywords):
		return ErrCodeConfig, "No trending keywords are configured"
	case youtube.IsQuotaExceeded(err):
		return ErrCodeQuotaExceeded, "YouTube API quota exceeded, try again later"
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout, "The video platform did not respond in time"
	}

	var perr *discovery.ProviderError
	if errors.As(err, &perr) {
		return ErrCodeProvider, "The video platform request failed"
	}
	return ErrCodeInternal, "Failed to analyze videos"
}

// writePipelineError logs err and writes the matching error envelope.
func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := classifyPipelineError(err)
	if StatusCodeMapping(code) >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "discovery request failed", "error_code", code, "error", err)
	} else {
		slog.WarnContext(r.Context(), "discovery request rejected", "error_code", code, "error", err)
	}
	writeCodedError(w, r, code, message)
}
