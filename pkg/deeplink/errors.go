package deeplink

import "errors"

var (
	ErrResolve             = errors.New("deeplink: failed to resolve payload")
	ErrReferrerUnavailable = errors.New("deeplink: install referrer unavailable")
)
