package utils

import "errors"

var (
	ErrInvalidCriteria  = errors.New("invalid search criteria")
	ErrInvalidRequest   = errors.New("invalid emergency request")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotification     = errors.New("notification failed")
	ErrNotFound         = errors.New("not found")
	ErrInProgress       = errors.New("dispatch already in progress")
)
