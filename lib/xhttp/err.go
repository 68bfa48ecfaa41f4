package xhttp

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrExists is returned by Download when the destination already exists.
var ErrExists = errors.New("output file already exists")

// StatusError is returned when the server answers with a non 2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}
