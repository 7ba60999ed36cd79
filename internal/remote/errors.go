package remote

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrInvalidResponse indicates the server answered but omitted something the
// download pipeline depends on, like a Content-Length header
var ErrInvalidResponse = errors.New("invalid response from remote")

// ErrNotDrop indicates the healthcheck endpoint answered but did not
// identify itself as a Drop server
var ErrNotDrop = errors.New("not a valid Drop endpoint")

// StatusError is returned when the remote answers with an unexpected HTTP
// status. Body carries the response text for the logs.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned status %d", e.Code)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.Code, e.Body)
}

func newStatusError(resp *http.Response) *StatusError {
	// Servers put the useful part first; don't let a huge error page
	// balloon the log line
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
