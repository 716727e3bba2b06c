package properties

import "errors"

var (
	// ErrMissingExternalRef is returned when the CRM reference is absent
	ErrMissingExternalRef = errors.New("external reference is required")

	// ErrMissingTitle is returned when title or description is absent
	ErrMissingTitle = errors.New("title and description are required")

	// ErrMissingAddress is returned when a required address line is absent
	ErrMissingAddress = errors.New("address line1, city and postcode are required")

	// ErrInvalidType is returned for an unknown property type
	ErrInvalidType = errors.New("invalid property type")

	// ErrInvalidBedrooms is returned for an out-of-range bedroom count
	ErrInvalidBedrooms = errors.New("bedrooms must be between 0 and 20")

	// ErrInvalidPrice is returned for a negative price
	ErrInvalidPrice = errors.New("price must not be negative")

	// ErrPropertyNotFound is returned when no matching listing exists
	ErrPropertyNotFound = errors.New("property not found")
)
