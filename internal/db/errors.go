package db

import "errors"

var (
	// ErrInit means the database could not be opened or its schema created.
	ErrInit = errors.New("initialize history store")

	// ErrWrite means an insert or delete failed. No row was changed.
	ErrWrite = errors.New("write history store")

	// ErrDecode means a stored phrase list could not be parsed.
	ErrDecode = errors.New("decode phrases")

	// ErrEncode means a phrase list cannot be stored without loss.
	ErrEncode = errors.New("encode phrases")

	// ErrEmptyName is returned by Create for a blank conversation name.
	ErrEmptyName = errors.New("conversation name is empty")
)
