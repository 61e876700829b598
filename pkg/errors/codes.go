package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_014"
	ErrCodeStorageError       ErrorCode = "COMMON_015"
)

const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Ingestion Module Error Codes
const (
	ErrCodeGridShapeMismatch  ErrorCode = "ING_001"
	ErrCodeGridNotRectangular ErrorCode = "ING_002"
	ErrCodeIngestInProgress   ErrorCode = "ING_003"
	ErrCodeRecordNotFound     ErrorCode = "ING_004"
)

// Alert Module Error Codes
const (
	ErrCodeAlertNotFound       ErrorCode = "ALR_001"
	ErrCodeAlertPublishFailed  ErrorCode = "ALR_002"
	ErrCodeAlertTemplateFailed ErrorCode = "ALR_003"
)

// Field Module Error Codes
const (
	ErrCodeFieldNotFound     ErrorCode = "FLD_001"
	ErrCodeThresholdsInvalid ErrorCode = "FLD_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,

	ErrCodeGridShapeMismatch:  http.StatusUnprocessableEntity,
	ErrCodeGridNotRectangular: http.StatusUnprocessableEntity,
	ErrCodeIngestInProgress:   http.StatusConflict,
	ErrCodeRecordNotFound:     http.StatusNotFound,

	ErrCodeAlertNotFound:       http.StatusNotFound,
	ErrCodeAlertPublishFailed:  http.StatusInternalServerError,
	ErrCodeAlertTemplateFailed: http.StatusInternalServerError,

	ErrCodeFieldNotFound:     http.StatusNotFound,
	ErrCodeThresholdsInvalid: http.StatusUnprocessableEntity,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessageQueueError:  "message queue error",
	ErrCodeStorageError:       "object storage error",

	ErrCodeGridShapeMismatch:  "grid dimensions do not match",
	ErrCodeGridNotRectangular: "grid is not rectangular",
	ErrCodeIngestInProgress:   "ingestion already in progress for field and date",
	ErrCodeRecordNotFound:     "no data",

	ErrCodeAlertNotFound:       "alert not found",
	ErrCodeAlertPublishFailed:  "failed to publish alert event",
	ErrCodeAlertTemplateFailed: "failed to render alert text",

	ErrCodeFieldNotFound:     "field not found",
	ErrCodeThresholdsInvalid: "invalid field thresholds",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
