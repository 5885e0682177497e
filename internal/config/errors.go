package config

import "errors"

// Sentinel errors returned by [Load].
var (
	ErrFileNotFound = errors.New("config file not found")
	ErrFileRead     = errors.New("cannot read config file")
	ErrInvalid      = errors.New("invalid config file")
	ErrInvalidValue = errors.New("invalid config value")
)
