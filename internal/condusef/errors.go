// Package condusef implements the HTTP clients for the CONDUSEF regulatory
// APIs: the REDECO host (auth, catalogs, complaint submission) and the REUNE
// host (bulk query submission).
package condusef

// APIError is the single error kind for every remote API failure. Message is
// always safe to show to the end user; callers distinguish causes informally
// through StatusCode and the wrapped error.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func apiErr(status int, msg string) *APIError {
	return &APIError{StatusCode: status, Message: msg}
}
