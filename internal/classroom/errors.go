package classroom

import "errors"

var (
	// ErrNotConnected is returned when a command needs the socket and the
	// transport is not connected. No traffic is sent.
	ErrNotConnected = errors.New("not connected to server")

	// ErrInvalidInput is returned when a required field is missing or blank
	// after trimming. No traffic is sent.
	ErrInvalidInput = errors.New("required field missing")
)
