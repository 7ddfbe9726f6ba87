package services

import "errors"

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInvalidCode  = errors.New("invalid or expired code")
	ErrSelfContact  = errors.New("cannot add yourself as a contact")
)
