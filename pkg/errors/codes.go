package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Sentinel codes used by GetCode when no AppError is present in a chain.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Common error codes shared by all modules.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeStorageError       ErrorCode = "COMMON_011"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_012"
)

// Keyword / normalization error codes.
const (
	// ErrCodeKeywordMalformed marks a single provider record that could not be
	// normalized (empty keyword text after trimming).  Per-record, recoverable:
	// the record is dropped and the batch continues.
	ErrCodeKeywordMalformed  ErrorCode = "KW_001"
	ErrCodeSnapshotNotFound  ErrorCode = "KW_002"
	ErrCodeSnapshotCorrupted ErrorCode = "KW_003"
)

// Gap analysis error codes.
const (
	// ErrCodeInvalidRunConfig is the only fatal pre-flight failure of the
	// analysis pipeline: missing target domain or zero configured competitors.
	ErrCodeInvalidRunConfig ErrorCode = "GAP_001"

	// ErrCodeEmptyCompetitorSet marks a configured competitor that yielded zero
	// keyword records.  Non-fatal: logged, the competitor contributes no gaps.
	ErrCodeEmptyCompetitorSet ErrorCode = "GAP_002"

	// ErrCodeNoGapsFound names the valid terminal state in which the target
	// fully covers all competitor keywords.  It is surfaced to callers as a
	// status flag on ReportData, never as an error.
	ErrCodeNoGapsFound ErrorCode = "GAP_003"

	ErrCodeRunNotFound ErrorCode = "GAP_004"
)

// Reporting error codes.
const (
	ErrCodeReportRenderFailed ErrorCode = "RPT_001"
	ErrCodeReportNotFound     ErrorCode = "RPT_002"
	ErrCodeArtifactUpload     ErrorCode = "RPT_003"
)

// Data provider error codes.
const (
	ErrCodeProviderUnavailable ErrorCode = "PROV_001"
	ErrCodeProviderAuthFailed  ErrorCode = "PROV_002"
	ErrCodeProviderRateLimited ErrorCode = "PROV_003"
	ErrCodeProviderParseError  ErrorCode = "PROV_004"
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
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,

	ErrCodeKeywordMalformed:  http.StatusUnprocessableEntity,
	ErrCodeSnapshotNotFound:  http.StatusNotFound,
	ErrCodeSnapshotCorrupted: http.StatusInternalServerError,

	ErrCodeInvalidRunConfig:   http.StatusBadRequest,
	ErrCodeEmptyCompetitorSet: http.StatusUnprocessableEntity,
	ErrCodeNoGapsFound:        http.StatusOK,
	ErrCodeRunNotFound:        http.StatusNotFound,

	ErrCodeReportRenderFailed: http.StatusInternalServerError,
	ErrCodeReportNotFound:     http.StatusNotFound,
	ErrCodeArtifactUpload:     http.StatusInternalServerError,

	ErrCodeProviderUnavailable: http.StatusBadGateway,
	ErrCodeProviderAuthFailed:  http.StatusBadGateway,
	ErrCodeProviderRateLimited: http.StatusTooManyRequests,
	ErrCodeProviderParseError:  http.StatusBadGateway,
}

// HTTPStatus returns the HTTP status for a code, defaulting to 500 for codes
// without an explicit mapping.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := ErrorCodeHTTPStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
