package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The API returns either {"detail": "..."} or a map of
// field names to message lists ({"motivo": ["..."], "non_field_errors": [...]});
// both shapes are preserved on the returned error. Unrecognized bodies fall
// back to a generic error carrying the status code and raw body.
//
// The caller should only invoke this when resp.StatusCode indicates an error
// (i.e., not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	if appErr := decodeErrorBody(resp.StatusCode, bodyBytes); appErr != nil {
		return appErr
	}

	// Fallback: unstructured error body.
	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(bodyBytes))
}

// decodeErrorBody attempts both wire error shapes. It returns nil when the
// body matches neither.
func decodeErrorBody(status int, body []byte) *apperrors.AppError {
	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &detail) == nil && detail.Detail != "" {
		return &apperrors.AppError{
			Code:    statusCode(status),
			Message: detail.Detail,
			Status:  status,
			Err:     sentinelFor(status),
		}
	}

	var fields map[string][]string
	if json.Unmarshal(body, &fields) == nil && len(fields) > 0 {
		msg := ""
		if msgs := fields[apperrors.NonFieldKey]; len(msgs) > 0 {
			msg = msgs[0]
		}
		return &apperrors.AppError{
			Code:    statusCode(status),
			Message: msg,
			Fields:  fields,
			Status:  status,
			Err:     sentinelFor(status),
		}
	}

	return nil
}

func statusCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return "VALIDATION"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "HTTP_ERROR"
	}
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusBadRequest:
		return apperrors.ErrInvalidInput
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthorized
	case http.StatusForbidden:
		return apperrors.ErrForbidden
	case http.StatusConflict:
		return apperrors.ErrConflict
	case http.StatusServiceUnavailable:
		return apperrors.ErrServiceUnavail
	default:
		if status >= 500 {
			return apperrors.ErrInternal
		}
		return nil
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
