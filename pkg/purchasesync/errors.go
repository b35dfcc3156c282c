package purchasesync

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/solucions-socials/platform/pkg/holded"
)

var ErrSyncInProgress = errors.New("a sync is already running for this company")

// SyncError is returned when a sync aborts. It keeps the underlying message,
// including database driver errors, and records the stage that failed.
type SyncError struct {
	Company string
	State   State
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("holded sync for %s failed while %s: %v", e.Company, e.State, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ErrorCode is the machine readable error category exposed to callers.
type ErrorCode string

const (
	CodeInvalidCredentials ErrorCode = "invalid_credentials"
	CodeRemoteAPI          ErrorCode = "remote_api"
	CodeNetwork            ErrorCode = "network"
	CodeUnknownCompany     ErrorCode = "unknown_company"
	CodeSyncInProgress     ErrorCode = "sync_in_progress"
	CodeSyncFailed         ErrorCode = "sync_failed"
	CodeInternal           ErrorCode = "internal"
)

// CodeOf classifies err, looking at the root cause first.
func CodeOf(err error) ErrorCode {
	var apiErr *holded.RemoteAPIError
	var syncErr *SyncError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, holded.ErrUnknownCompany):
		return CodeUnknownCompany
	case errors.Is(err, ErrSyncInProgress):
		return CodeSyncInProgress
	case holded.IsInvalidCredentials(err):
		return CodeInvalidCredentials
	case holded.IsNetworkError(err):
		return CodeNetwork
	case errors.As(err, &apiErr):
		return CodeRemoteAPI
	case errors.As(err, &syncErr):
		return CodeSyncFailed
	default:
		return CodeInternal
	}
}

func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeUnknownCompany:
		return http.StatusNotFound
	case CodeSyncInProgress:
		return http.StatusConflict
	case CodeInvalidCredentials, CodeRemoteAPI:
		return http.StatusBadGateway
	case CodeNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON error body. Error keeps the human readable
// message older clients display as-is.
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}
