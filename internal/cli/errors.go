package cli

import "fmt"

// UsageError is a bad flag or argument. It exits with code 2 and is always
// raised before any client is built.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// usage wraps a parse error from the trading package.
func usage(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Message: err.Error()}
}
