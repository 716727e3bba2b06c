package leads

import "errors"

var (
	// ErrMissingFirstName is returned when the first name is absent
	ErrMissingFirstName = errors.New("first name is required")

	// ErrMissingPhone is returned when the phone number is absent
	ErrMissingPhone = errors.New("phone is required")

	// ErrInvalidChannel is returned for an unknown capture channel
	ErrInvalidChannel = errors.New("invalid source channel")

	// ErrInvalidStatus is returned for an unknown lead status
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrMissingNote is returned when a note body is empty
	ErrMissingNote = errors.New("note text is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
