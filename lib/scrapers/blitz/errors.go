package blitz

import (
	"errors"
	"fmt"
)

var (
	ErrFetch  = errors.New("fetch status page")
	ErrParse  = errors.New("parse status page")
	ErrFormat = errors.New("parse duration")
)

// FetchError is returned when the status page could not be retrieved,
// either because the request failed or the server answered with a non-200.
type FetchError struct {
	GameId     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch game %s: %v", e.GameId, e.Err)
	}
	return fmt.Sprintf("fetch game %s: unexpected status %d", e.GameId, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// ParseError is returned when a required element of the status page is absent.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse status page: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse status page: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// FormatError is returned by ParseHours for a malformed duration token.
type FormatError struct {
	Input  string
	Token  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("parse duration %q: token %q: %s", e.Input, e.Token, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}
