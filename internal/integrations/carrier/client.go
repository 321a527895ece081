package carrier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
)

// Client fetches the raw tracking snapshot for a carrier PIN.
// The snapshot is opaque to callers and may be partial.
type Client interface {
	GetShipmentStatus(ctx context.Context, pin string) (json.RawMessage, error)
}

type Kind string

const (
	KindConnectionFailed Kind = "connection_failed"
	KindAuthFailed       Kind = "auth_failed"
	KindEndpointNotFound Kind = "endpoint_not_found"
	KindOther            Kind = "other"
)

// Error is returned by every Client implementation for carrier-side failures.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConnectionFailed:
		return fmt.Sprintf("carrier connection failed, check network and endpoint configuration: %v", e.Err)
	case KindAuthFailed:
		return fmt.Sprintf("carrier authentication failed, verify carrier key and password: %v", e.Err)
	case KindEndpointNotFound:
		return fmt.Sprintf("carrier endpoint not found, check endpoint configuration: %v", e.Err)
	default:
		return fmt.Sprintf("carrier api error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the carrier error kind, or "" when err is not a carrier error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// FromStatus maps a non-2xx HTTP status to a carrier error.
func FromStatus(code int, body string) *Error {
	err := fmt.Errorf("status=%d body=%s", code, truncate(body, 256))
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{Kind: KindAuthFailed, Err: err}
	case http.StatusNotFound:
		return &Error{Kind: KindEndpointNotFound, Err: err}
	default:
		return &Error{Kind: KindOther, Err: err}
	}
}

// FromTransport classifies an error returned by http.Client.Do.
func FromTransport(err error) *Error {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) {
		return &Error{Kind: KindConnectionFailed, Err: err}
	}
	return &Error{Kind: KindOther, Err: err}
}

var pinRe = regexp.MustCompile(`^[0-9]+$`)

// NormalizePin trims the PIN and checks it is digits only.
func NormalizePin(pin string) (string, error) {
	p := strings.TrimSpace(pin)
	if p == "" {
		return "", errors.New("pin is empty")
	}
	if !pinRe.MatchString(p) {
		return "", errors.New("pin must contain only digits")
	}
	return p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
