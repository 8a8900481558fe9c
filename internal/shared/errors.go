package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Catalog and aggregation errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("request limit reached")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMovieNotFound      = fmt.Errorf("movie not found")
	ErrAggregateFailed    = fmt.Errorf("aggregation failed")

	// Storage errors
	ErrProfileNotFound = fmt.Errorf("profile not found")
	ErrUnknownList     = fmt.Errorf("unknown list")
	ErrCorruptList     = fmt.Errorf("stored list is unreadable")

	// Input validation errors
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrMissingArgument   = fmt.Errorf("missing required argument")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrInvalidBirthYear  = fmt.Errorf("invalid birth year")
	ErrBirthYearRequired = fmt.Errorf("birth year required")
	ErrUnderage          = fmt.Errorf("below minimum age")
)
