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

// Sentinel codes.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

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
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeStorageError       ErrorCode = "COMMON_017"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_018"
)

// External tool Error Codes
const (
	ErrCodeDependencyMissing ErrorCode = "TOOL_001"
	ErrCodeToolTimeout       ErrorCode = "TOOL_002"
	ErrCodeToolFailed        ErrorCode = "TOOL_003"
	ErrCodeToolStartFailed   ErrorCode = "TOOL_004"
)

// Ligand Module Error Codes
const (
	ErrCodePreparationFailed   ErrorCode = "LIG_001"
	ErrCodeLigandInvalidSMILES ErrorCode = "LIG_002"
	ErrCodeLigandMissing       ErrorCode = "LIG_003"
)

// Pocket Module Error Codes
const (
	ErrCodePocketDetectionSkipped ErrorCode = "PKT_001"
	ErrCodePocketTableInvalid     ErrorCode = "PKT_002"
)

// Docking Module Error Codes
const (
	ErrCodeDockingTaskFailed       ErrorCode = "DCK_001"
	ErrCodeReceptorConversion      ErrorCode = "DCK_002"
	ErrCodeReceptorLockNotAcquired ErrorCode = "DCK_003"
)

// Result / prediction Error Codes
const (
	ErrCodeResultTableInvalid ErrorCode = "RES_001"
	ErrCodeCenterParse        ErrorCode = "RES_002"
	ErrCodeSequenceParse      ErrorCode = "SEQ_001"
	ErrCodeModelLoadFailed    ErrorCode = "PRD_001"
	ErrCodePredictionFailed   ErrorCode = "PRD_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes for the status API.
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
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeResultTableInvalid: http.StatusUnprocessableEntity,
	ErrCodePocketTableInvalid: http.StatusUnprocessableEntity,
	ErrCodeCenterParse:        http.StatusUnprocessableEntity,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessageQueueError:  "message queue error",

	ErrCodeDependencyMissing: "required external tool not found",
	ErrCodeToolTimeout:       "external tool timed out",
	ErrCodeToolFailed:        "external tool exited with an error",
	ErrCodeToolStartFailed:   "external tool could not be started",

	ErrCodePreparationFailed:   "ligand preparation failed",
	ErrCodeLigandInvalidSMILES: "invalid SMILES",
	ErrCodeLigandMissing:       "prepared ligand not found",

	ErrCodePocketDetectionSkipped: "pocket detection skipped for structure",
	ErrCodePocketTableInvalid:     "invalid pocket table",

	ErrCodeDockingTaskFailed:       "docking task failed",
	ErrCodeReceptorConversion:      "receptor conversion failed",
	ErrCodeReceptorLockNotAcquired: "receptor lock not acquired",

	ErrCodeResultTableInvalid: "invalid result table",
	ErrCodeCenterParse:        "invalid pocket center",
	ErrCodeSequenceParse:      "failed to parse sequences",
	ErrCodeModelLoadFailed:    "failed to load prediction model",
	ErrCodePredictionFailed:   "structure prediction failed",
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

// ModuleForCode returns the module prefix of an ErrorCode ("TOOL", "LIG", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
