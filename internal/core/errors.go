package core

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrMemberNotFound       = errors.New("member not found")
	ErrMemberExists         = errors.New("member profile already exists")
	ErrClassNotFound        = errors.New("class not found")
	ErrClassFull            = errors.New("class is full")
	ErrAlreadyBooked        = errors.New("already booked into this class")
	ErrNotBooked            = errors.New("not booked into this class")
	ErrTourRequestNotFound  = errors.New("tour request not found")
	ErrPaymentMethodCorrupt = errors.New("stored payment method could not be decrypted")
)
