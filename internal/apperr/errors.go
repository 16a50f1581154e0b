package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrPlanInFlight  = errors.New("plan generation already in progress")
	ErrMalformedPlan = errors.New("malformed plan response")
)
