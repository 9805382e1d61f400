package config

import "errors"

var (
	// ErrParsingConfig: environment variables could not be parsed into the struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer: a nil pointer was passed to Load.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
