package bookings

import "errors"

var (
	// ErrBookingNotFound is returned when a booking is not found
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSlotUnavailable is returned when the requested interval overlaps
	// an active booking
	ErrSlotUnavailable = errors.New("requested time slot is unavailable")

	// ErrMissingProperty is returned when no property is referenced
	ErrMissingProperty = errors.New("property is required")

	// ErrMissingStart is returned when the start time is absent
	ErrMissingStart = errors.New("start time is required")

	// ErrInvalidType is returned for an unknown appointment type
	ErrInvalidType = errors.New("invalid booking type")

	// ErrInvalidDuration is returned for a non-positive duration
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrMissingCustomerName is returned when the customer name is absent
	ErrMissingCustomerName = errors.New("customer name is required")

	// ErrMissingCustomerPhone is returned when the customer phone is absent
	ErrMissingCustomerPhone = errors.New("customer phone is required")

	// ErrInvalidTransition is returned for a disallowed status change
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrLockUnavailable is returned when the tenant admission lock cannot
	// be acquired before the context deadline
	ErrLockUnavailable = errors.New("could not acquire booking lock")
)
