package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller's role does not allow the operation
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked is used for logged out or invalidated tokens
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
	// ErrCodeInvalidCredentials is used for a failed login
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	// ErrCodeAccountLocked is used while too many failed logins lock an account
	ErrCodeAccountLocked = "ERR_ACCOUNT_LOCKED"
	// ErrCodeAccountDisabled is used for deactivated or detached accounts
	ErrCodeAccountDisabled = "ERR_ACCOUNT_DISABLED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeMessInactive is used for writes to a mess that is not active
	ErrCodeMessInactive = "ERR_MESS_INACTIVE"
	// ErrCodeMessSuspended is used when the platform has suspended the caller's mess
	ErrCodeMessSuspended = "ERR_MESS_SUSPENDED"
	// ErrCodeOutsidePeriod is used for working data dated outside the open period
	ErrCodeOutsidePeriod = "ERR_OUTSIDE_PERIOD"
	// ErrCodeLastManager is used when a change would leave a mess without a manager
	ErrCodeLastManager = "ERR_LAST_MANAGER"
	// ErrCodeRolloverInProgress is used while another process settles the same mess
	ErrCodeRolloverInProgress = "ERR_ROLLOVER_IN_PROGRESS"
	// ErrCodeExportPending is used when an archive has not been exported yet
	ErrCodeExportPending = "ERR_EXPORT_PENDING"
	// ErrCodeExportUnavailable is used when no export storage is configured
	ErrCodeExportUnavailable = "ERR_EXPORT_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountLocked:      http.StatusLocked,
	ErrCodeAccountDisabled:    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeMessInactive:       http.StatusUnprocessableEntity,
	ErrCodeMessSuspended:      http.StatusForbidden,
	ErrCodeOutsidePeriod:      http.StatusUnprocessableEntity,
	ErrCodeLastManager:        http.StatusUnprocessableEntity,
	ErrCodeRolloverInProgress: http.StatusConflict,
	ErrCodeExportPending:      http.StatusConflict,
	ErrCodeExportUnavailable:  http.StatusServiceUnavailable,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code. Unmapped
// ERR_INVALID_* codes are input errors; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "ERR_INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"PASSWORD_HASH_ERROR":  ErrCodeInternal,

	"TOKEN_EXPIRED":       ErrCodeTokenExpired,
	"TOKEN_INVALID":       ErrCodeTokenInvalid,
	"TOKEN_ERROR":         ErrCodeTokenInvalid,
	"TOKEN_MAX_REFRESH":   ErrCodeTokenExpired,
	"TOKEN_REVOKED":       ErrCodeTokenRevoked,
	"INVALID_CREDENTIALS": ErrCodeInvalidCredentials,
	"ACCOUNT_LOCKED":      ErrCodeAccountLocked,
	"ACCOUNT_DEACTIVATED": ErrCodeAccountDisabled,
	"ACCOUNT_DETACHED":    ErrCodeAccountDisabled,

	"CODE_EXISTS":    ErrCodeAlreadyExists,
	"EMAIL_EXISTS":   ErrCodeAlreadyExists,
	"CONTACT_EXISTS": ErrCodeAlreadyExists,
	"ARCHIVE_EXISTS": ErrCodeAlreadyExists,

	"MESS_NOT_ACTIVE":      ErrCodeMessInactive,
	"MESS_SUSPENDED":       ErrCodeMessSuspended,
	"DATE_OUTSIDE_PERIOD":  ErrCodeOutsidePeriod,
	"LAST_MANAGER":         ErrCodeLastManager,
	"PERIOD_REGRESSION":    ErrCodeBusinessRule,
	"PERIOD_MISMATCH":      ErrCodeBusinessRule,
	"ROLLOVER_IN_PROGRESS": ErrCodeRolloverInProgress,
	"LOCK_NOT_HELD":        ErrCodeConflict,
	"EXPORT_PENDING":       ErrCodeExportPending,
	"EXPORT_UNAVAILABLE":   ErrCodeExportUnavailable,
	"EMAIL_REQUIRED":       ErrCodeInvalidInput,
	"CONTACT_REQUIRED":     ErrCodeInvalidInput,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Field-level INVALID_<FIELD> codes become ERR_INVALID_<FIELD>; codes already
// in the new format pass through.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return "ERR_" + code
	}
	return code
}
