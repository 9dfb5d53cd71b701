package errors

import (
	"errors"
	"net/http"
)

// ErrorWithStatusCode is returned for every non-2xx response from the CMS.
// Body holds the raw response payload; it is never interpreted here.
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Body       []byte
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// StatusCode reports the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode, true
	}
	return 0, false
}

func IsUnauthorized(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == http.StatusUnauthorized
}
