package restconf

import "fmt"

// TransportError is returned when a request never produced an HTTP response,
// e.g. DNS failure, connection refused or a deadline.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MissingParameterError is returned by ResolvePath when a placeholder has no value.
type MissingParameterError struct {
	Template string
	Name     string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("path %q: missing value for {%s}", e.Template, e.Name)
}
