package agents

import "errors"

var (
	// ErrMissingCompanyName is returned when the company name is absent
	ErrMissingCompanyName = errors.New("company name is required")

	// ErrInvalidEmail is returned for a missing or malformed email
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrMissingPhone is returned when the contact phone is absent
	ErrMissingPhone = errors.New("phone is required")

	// ErrAgentNotFound is returned when no matching tenant exists
	ErrAgentNotFound = errors.New("agent not found")
)
