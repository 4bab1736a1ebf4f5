// Package httpstatus maps HTTP response statuses onto domain error codes so
// the rest of the client reasons about failures in business terms only.
package httpstatus

import (
	"net/http"

	dErrors "seva/pkg/domain-errors"
)

// ToCode classifies an upstream HTTP status into a domain error code.
// 2xx statuses are the caller's responsibility and map to internal_error
// here only as a safety net.
func ToCode(status int) dErrors.Code {
	switch {
	case status == http.StatusUnauthorized:
		return dErrors.CodeUnauthorized
	case status == http.StatusForbidden:
		return dErrors.CodeForbidden
	case status == http.StatusNotFound:
		return dErrors.CodeNotFound
	case status == http.StatusConflict:
		return dErrors.CodeConflict
	case status == http.StatusUnprocessableEntity:
		return dErrors.CodeValidation
	case status == http.StatusGatewayTimeout, status == http.StatusRequestTimeout:
		return dErrors.CodeTimeout
	case status >= 400 && status < 500:
		return dErrors.CodeBadRequest
	default:
		return dErrors.CodeInternal
	}
}
