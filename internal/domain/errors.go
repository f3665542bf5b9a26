package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures by how the caller should react to them.
type ErrorKind int

const (
	// KindOther is any failure that is neither transport nor configuration.
	KindOther ErrorKind = iota
	// KindTransport covers network failures, non-success statuses and malformed payloads.
	KindTransport
	// KindConfig covers invalid settings detected before the pipeline starts.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindConfig:
		return "config"
	default:
		return "other"
	}
}

// Error is the single tagged error value used across the application.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TransportError wraps err as a KindTransport error.
func TransportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// ConfigError wraps err as a KindConfig error.
func ConfigError(op string, err error) error {
	return &Error{Kind: KindConfig, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindOther.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}
