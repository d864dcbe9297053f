package cmd

import "errors"

var (
	// ErrInvalidLocale is returned when the collation locale is not a valid language tag
	ErrInvalidLocale = errors.New("invalid locale")

	// ErrInvalidRecordIndex is returned when a record index given on the command line is negative
	ErrInvalidRecordIndex = errors.New("invalid record index")
)
