package webhooks

import "errors"

// errMissingDateTime is returned when a booking or availability payload
// lacks a usable date/time.
var errMissingDateTime = errors.New("date and time are required")
