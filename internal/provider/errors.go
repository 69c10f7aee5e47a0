package provider

import (
	"errors"
	"fmt"
)

// Failure kinds a provider can signal. Match them with errors.Is.
var (
	// ErrChainNotFound means no provider (or not the selected one) serves the chain.
	ErrChainNotFound = errors.New("chain not found")

	// ErrThrottled means the upstream rate limited the request.
	ErrThrottled = errors.New("upstream throttled request")

	// ErrUpstreamTransport covers connection failures, timeouts and unreadable bodies.
	ErrUpstreamTransport = errors.New("upstream transport failure")

	// ErrRequestConstruction means the outbound request could not be built.
	ErrRequestConstruction = errors.New("request construction failed")
)

// Error carries a failure kind together with the provider and chain it came from.
type Error struct {
	Kind     error
	Provider Kind
	Chain    ChainID
	Err      error
}

func newError(kind error, provider Kind, chain ChainID, cause error) *Error {
	return &Error{Kind: kind, Provider: provider, Chain: chain, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Chain != "" {
		msg = fmt.Sprintf("%s (chain %s)", msg, e.Chain)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is reports whether target is the failure kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or nil when err is not one of ours.
func KindOf(err error) error {
	for _, kind := range []error{ErrChainNotFound, ErrThrottled, ErrUpstreamTransport, ErrRequestConstruction} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
