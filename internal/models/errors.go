package models

import (
	"errors"
)

var (
	// ErrGeneral is returned when the database failed in a way that the
	// caller cannot do anything about. Details are logged, not returned.
	ErrGeneral = errors.New("an error occurred on the server during your request")

	// ErrResourceNotFound is returned when a query matches no record.
	ErrResourceNotFound = errors.New("there is no")
)
