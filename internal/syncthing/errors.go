package syncthing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("syncthing: HTTP %d: %s", e.Status, e.Body)
}

// DescribeError maps a failure to the human-readable message surfaced
// through the tool channel. The instance name is prefixed in brackets unless
// the instance is the implicit single default, to avoid noise in the common
// single-instance case.
func (c *Client) DescribeError(err error) string {
	prefix := ""
	if c.name != "default" {
		prefix = "[" + c.name + "] "
	}

	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case 401:
			return fmt.Sprintf("%sError 401: Unauthorized. Check API key for instance '%s'.", prefix, c.name)
		case 403:
			return fmt.Sprintf("%sError 403: Forbidden. API key may lack permissions.", prefix)
		case 404:
			return fmt.Sprintf("%sError 404: Not found. Check the folder/device ID. Detail: %s", prefix, apiErr.Body)
		default:
			return fmt.Sprintf("%sError %d: %s", prefix, apiErr.Status, apiErr.Body)
		}
	case isTimeout(err):
		return fmt.Sprintf("%sError: Request timed out. Syncthing may be busy or unreachable.", prefix)
	case isConnectFailure(err):
		return fmt.Sprintf("%sError: Cannot connect to Syncthing at %s. Is it running?", prefix, c.baseURL)
	default:
		return fmt.Sprintf("%sError: %v", prefix, err)
	}
}

// IsConnectionDropped reports whether a call failed because the daemon
// closed the connection mid-flight, which a restart request legitimately
// causes.
func IsConnectionDropped(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnectFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
