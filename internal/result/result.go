// Package result is the closed set of outcomes every query returns, so
// callers switch on a Kind instead of probing response shapes.
package result

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"staybook/pkg/client"
	"strings"
)

type Kind string

const (
	KindOk    Kind = "ok"
	KindEmpty Kind = "empty"
	KindError Kind = "error"
)

type ErrorKind string

const (
	ErrUnauthorized ErrorKind = "unauthorized"
	ErrNetwork      ErrorKind = "network"
	ErrBackend      ErrorKind = "backend"
	ErrInvalid      ErrorKind = "invalid"
	ErrUnknown      ErrorKind = "unknown"
)

// Messages the backend uses for "nothing yet" instead of an empty list.
var emptyMarkers = []string{
	"No bookings found for this user",
	"No favorites found for this user",
}

type Result[T any] struct {
	Kind      Kind      `json:"kind"`
	Data      T         `json:"data,omitempty"`
	ErrorKind ErrorKind `json:"errorKind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Err       error     `json:"-"`
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Kind: KindOk, Data: data}
}

func Empty[T any]() Result[T] {
	return Result[T]{Kind: KindEmpty}
}

func Fail[T any](kind ErrorKind, err error) Result[T] {
	r := Result[T]{Kind: KindError, ErrorKind: kind, Err: err}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// Of builds a result from a fetch outcome. Empty slices and not-found shaped
// errors both map to Empty.
func Of[T any](data T, err error) Result[T] {
	if err != nil {
		return FromError[T](err)
	}
	if isEmptyValue(data) {
		return Empty[T]()
	}
	return Ok(data)
}

func FromError[T any](err error) Result[T] {
	if IsNotFound(err) {
		return Empty[T]()
	}
	return Fail[T](Classify(err), err)
}

func (r Result[T]) IsOk() bool    { return r.Kind == KindOk }
func (r Result[T]) IsEmpty() bool { return r.Kind == KindEmpty }
func (r Result[T]) IsError() bool { return r.Kind == KindError }

// IsNotFound reports whether err is the backend's way of saying there is
// nothing to show yet.
func IsNotFound(err error) bool {
	apiErr, ok := client.AsAPIError(err)
	if !ok {
		return false
	}
	if apiErr.Status == http.StatusNotFound || apiErr.Name == "NotFoundError" {
		return true
	}
	for _, marker := range emptyMarkers {
		if strings.Contains(apiErr.Message, marker) {
			return true
		}
	}
	return false
}

func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if apiErr, ok := client.AsAPIError(err); ok {
		switch {
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return ErrUnauthorized
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return ErrInvalid
		default:
			return ErrBackend
		}
	}
	if errors.Is(err, client.ErrBackendUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return ErrNetwork
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return ErrNetwork
	}
	return ErrUnknown
}

func isEmptyValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
