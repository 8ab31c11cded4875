package services

import "errors"

// ErrForbidden is returned when the caller is authenticated but not
// allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrInvalid is returned (wrapped) when request input fails validation.
var ErrInvalid = errors.New("invalid input")
