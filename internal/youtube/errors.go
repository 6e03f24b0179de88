package youtube

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Reasons reported by the Data API when the project allowance is spent.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// APIError is a failed Data API call.
type APIError struct {
	Op         string
	StatusCode int
	Reason     string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube %s: %d %s: %s", e.Op, e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// QuotaExceeded reports whether the call failed because quota ran out.
func (e *APIError) QuotaExceeded() bool {
	return e.StatusCode == http.StatusForbidden && quotaReasons[e.Reason] ||
		e.StatusCode == http.StatusTooManyRequests
}

// IsQuotaExceeded reports whether err is an APIError caused by quota exhaustion.
func IsQuotaExceeded(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.QuotaExceeded()
}

// wrapError converts a client library error into an *APIError.
func wrapError(op string, err error) error {
	apiErr := &APIError{Op: op, Err: err}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr.StatusCode = gerr.Code
		apiErr.Message = gerr.Message
		if len(gerr.Errors) > 0 {
			apiErr.Reason = gerr.Errors[0].Reason
			if apiErr.Message == "" {
				apiErr.Message = gerr.Errors[0].Message
			}
		}
	}
	return apiErr
}
