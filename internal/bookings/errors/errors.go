package errors

import "errors"

const (
	MsgCreateFailed = "Failed to create booking"
)

var (
	ErrDraftNotFound = errors.New("booking draft not found or expired")

	ErrSubmissionInFlight = errors.New("booking submission already in progress")

	ErrNotSubmittable = errors.New("booking draft cannot be submitted")

	ErrInvalidSelection = errors.New("room selection index out of range")

	ErrNoBookingID = errors.New("backend returned a booking without an id")
)
