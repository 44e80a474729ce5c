package services

import "errors"

var (
	// ErrInvalidVoteValue is returned by Cast for values other than -1 and +1.
	// The ledger is left untouched.
	ErrInvalidVoteValue = errors.New("vote value must be -1 or 1")
	ErrEmptyComment     = errors.New("comment is empty")
	ErrSlugExhausted    = errors.New("no free slug")
	ErrNotImageable     = errors.New("record type does not take images")
	ErrUnsupportedImage = errors.New("unsupported image format")
)
