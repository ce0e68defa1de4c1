package apperrors

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrSourceExists  = errors.New("source already open")
	ErrSourceClosed  = errors.New("source is closed")
	ErrRuntimeClosed = errors.New("engine runtime is closed")
)
