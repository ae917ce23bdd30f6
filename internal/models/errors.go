package models

import "errors"

var (
	// ErrInvalidArgument marks a bad organization ID or timeframe.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDataAccess marks a storage failure while reading telemetry.
	ErrDataAccess = errors.New("data access error")
	// ErrExternalService marks a failed call to the generation service.
	ErrExternalService = errors.New("external service error")
	// ErrMalformedResponse marks generation output that failed schema validation.
	ErrMalformedResponse = errors.New("malformed response")
)
