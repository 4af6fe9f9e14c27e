// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Kind groups failures of an outbound call by how they should be handled
type Kind int

const (
	KindUnknown      Kind = iota
	KindTransient         // network hiccups
	KindTimeout           // deadline hit on our side or theirs
	KindRateLimit         // 429 or provider throttling
	KindUnavailable       // 5xx
	KindPermanent         // auth, missing model, cancelled
	KindInvalidInput      // request rejected as malformed
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	case KindUnavailable:
		return "unavailable"
	case KindPermanent:
		return "permanent"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on retry
func (k Kind) Retryable() bool {
	switch k {
	case KindTransient, KindTimeout, KindRateLimit, KindUnavailable:
		return true
	}
	return false
}

// ClassifiedError wraps an error with its Kind and, for HTTP failures, the
// response status
type ClassifiedError struct {
	Err    error
	Kind   Kind
	Status int
}

func (e *ClassifiedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify returns the classification of err. Errors that already carry a
// ClassifiedError anywhere in their chain keep it.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case errors.Is(err, context.Canceled):
		return &ClassifiedError{Err: err, Kind: KindPermanent}
	case errors.Is(err, context.DeadlineExceeded):
		return &ClassifiedError{Err: err, Kind: KindTimeout}
	case isNetworkError(err):
		return &ClassifiedError{Err: err, Kind: KindTransient}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return &ClassifiedError{Err: err, Kind: KindTimeout}
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return &ClassifiedError{Err: err, Kind: KindRateLimit}
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden"):
		return &ClassifiedError{Err: err, Kind: KindPermanent}
	}
	return &ClassifiedError{Err: err, Kind: KindUnknown}
}

// FromStatus classifies a failed HTTP exchange by its status code
func FromStatus(status int, err error) *ClassifiedError {
	kind := KindUnknown
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	case status >= 500:
		kind = KindUnavailable
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindInvalidInput
	case status >= 400:
		kind = KindPermanent
	}
	return &ClassifiedError{Err: err, Kind: kind, Status: status}
}

// IsRetryable reports whether err should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Kind.Retryable()
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
