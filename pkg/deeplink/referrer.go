package deeplink

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// ReferrerKey is the referrer parameter carrying the link.
const ReferrerKey = "linksquared_link"

// ReferrerSource yields the install referrer once. An empty string means the
// platform has none.
type ReferrerSource interface {
	InstallReferrer(ctx context.Context) (string, error)
}

// ReferrerFunc adapts a function to ReferrerSource.
type ReferrerFunc func(ctx context.Context) (string, error)

// InstallReferrer calls f(ctx).
func (f ReferrerFunc) InstallReferrer(ctx context.Context) (string, error) {
	return f(ctx)
}

// ReferrerStatus is reported by a ReferrerConnection once setup finishes.
type ReferrerStatus int

const (
	ReferrerOK ReferrerStatus = iota
	ReferrerNotSupported
	ReferrerServiceUnavailable
	ReferrerDisconnected
)

func (s ReferrerStatus) String() string {
	switch s {
	case ReferrerOK:
		return "ok"
	case ReferrerNotSupported:
		return "not_supported"
	case ReferrerServiceUnavailable:
		return "service_unavailable"
	case ReferrerDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ReferrerConnection is a callback-style connection to the platform's
// install referrer service.
type ReferrerConnection interface {
	// Start begins connecting and calls done with the setup outcome.
	// done may be called from any goroutine and more than once.
	Start(done func(ReferrerStatus))
	// Referrer returns the referrer string. Valid after ReferrerOK.
	Referrer() (string, error)
	// End releases the connection.
	End()
}

// FetchReferrer reads the referrer through conn. The connection is always
// ended, including when ctx is cancelled first. Unsupported or unavailable
// services yield an empty string and no error.
func FetchReferrer(ctx context.Context, conn ReferrerConnection) (string, error) {
	defer conn.End()

	statuses := make(chan ReferrerStatus, 1)
	conn.Start(func(s ReferrerStatus) {
		select {
		case statuses <- s:
		default:
		}
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case s := <-statuses:
		if s != ReferrerOK {
			return "", nil
		}
		ref, err := conn.Referrer()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrReferrerUnavailable, err)
		}
		return ref, nil
	}
}

// ConnectionSource returns a ReferrerSource opening a fresh connection per
// call.
func ConnectionSource(open func() ReferrerConnection) ReferrerSource {
	return ReferrerFunc(func(ctx context.Context) (string, error) {
		return FetchReferrer(ctx, open())
	})
}

// DecodeReferrer splits a referrer into its URL-decoded parameters. Pairs
// without exactly one '=' or with invalid escapes are skipped.
func DecodeReferrer(referrer string) map[string]string {
	params := make(map[string]string)
	if referrer == "" {
		return params
	}

	for pair := range strings.SplitSeq(referrer, "&") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			continue
		}
		key, err := url.QueryUnescape(parts[0])
		if err != nil || key == "" {
			continue
		}
		value, err := url.QueryUnescape(parts[1])
		if err != nil {
			continue
		}
		params[key] = value
	}
	return params
}
