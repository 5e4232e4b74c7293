package service

import "errors"

// Service errors mapped to HTTP status codes by the handlers
var (
	ErrTripNotFound = errors.New("trip not found")
	ErrRunNotFound  = errors.New("processing run not found")
	ErrInvalidRange = errors.New("invalid time range")
	ErrInvalidInput = errors.New("invalid input")
)
