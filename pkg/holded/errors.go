package holded

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUnknownCompany = errors.New("unknown company")

// RemoteAPIError is returned for any non-2xx Holded response.
type RemoteAPIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *RemoteAPIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("holded api error %d on %s: %s", e.StatusCode, e.Endpoint, e.Body)
	}
	return fmt.Sprintf("holded api error %d on %s", e.StatusCode, e.Endpoint)
}

// IsAuth reports whether Holded rejected the API key.
func (e *RemoteAPIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// InvalidCredentialsError is returned when Holded answers with a non-JSON
// body, which is what it does (an HTML page) for an invalid API key.
type InvalidCredentialsError struct {
	Endpoint string
	Err      error
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid Holded API key: the API returned a non-JSON response for " + e.Endpoint
}

func (e *InvalidCredentialsError) Unwrap() error {
	return e.Err
}

// NetworkError wraps request-level failures (DNS, refused connections, timeouts).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("holded request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func IsInvalidCredentials(err error) bool {
	var ice *InvalidCredentialsError
	if errors.As(err, &ice) {
		return true
	}
	var apiErr *RemoteAPIError
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
