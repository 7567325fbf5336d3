package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrJobNotFound     = errors.New("job not found")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrUserNotFound    = errors.New("alert user not found")
)
