package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are "<MODULE>_<NNN>"; the module prefix groups them for metrics.
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
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeInvalidConfig      ErrorCode = "COMMON_017"
)

// Survey Module Error Codes
const (
	ErrCodeSurveyNotFound      ErrorCode = "SRV_001"
	ErrCodeInvalidFiscalYear   ErrorCode = "SRV_002"
	ErrCodeInvalidFilter       ErrorCode = "SRV_003"
	ErrCodeInvalidSubmission   ErrorCode = "SRV_004"
	ErrCodeExportFailed        ErrorCode = "SRV_005"
	ErrCodeEventPublishFailed  ErrorCode = "SRV_006"
	ErrCodeObjectStorageFailed ErrorCode = "SRV_007"
	ErrCodeMigrationFailed     ErrorCode = "SRV_008"
)

// Aliases used at call sites.
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// ErrorCodeHTTPStatus maps each code to the HTTP status returned to clients.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeInvalidConfig:      http.StatusInternalServerError,

	ErrCodeSurveyNotFound:      http.StatusNotFound,
	ErrCodeInvalidFiscalYear:   http.StatusBadRequest,
	ErrCodeInvalidFilter:       http.StatusBadRequest,
	ErrCodeInvalidSubmission:   http.StatusUnprocessableEntity,
	ErrCodeExportFailed:        http.StatusInternalServerError,
	ErrCodeEventPublishFailed:  http.StatusBadGateway,
	ErrCodeObjectStorageFailed: http.StatusBadGateway,
	ErrCodeMigrationFailed:     http.StatusInternalServerError,
}

// ErrorCodeMessage is the default client-facing message per code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "malformed payload",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeInvalidConfig:      "invalid configuration",

	ErrCodeSurveyNotFound:      "survey record not found",
	ErrCodeInvalidFiscalYear:   "invalid financial year",
	ErrCodeInvalidFilter:       "invalid filter",
	ErrCodeInvalidSubmission:   "invalid survey submission",
	ErrCodeExportFailed:        "export failed",
	ErrCodeEventPublishFailed:  "failed to publish event",
	ErrCodeObjectStorageFailed: "object storage error",
	ErrCodeMigrationFailed:     "database migration failed",
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
	prefix, _, _ := strings.Cut(string(code), "_")
	if prefix == "" {
		return "UNKNOWN"
	}
	return prefix
}

//Personal.AI order the ending
