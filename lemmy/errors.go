package lemmy

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned by authenticated calls made before Login.
var ErrNotLoggedIn = errors.New("lemmy: not logged in")

// APIError is an error body returned by the Lemmy API.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lemmy api: %d %s", e.Status, e.Code)
}

// CapabilityError is any failed call into the platform: transport errors,
// timeouts and API errors alike. It is not retried by the core.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("lemmy %s: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// isNotFound reports whether an API error means the looked up object does not exist.
func isNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case "couldnt_find_community", "couldnt_find_person", "couldnt_find_object", "not_found":
		return true
	}
	return apiErr.Status == 404
}
