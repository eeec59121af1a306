package domain

import "errors"

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)

// History errors
var (
	// ErrHistoryClosed indicates the history store has been closed
	ErrHistoryClosed = errors.New("history store closed")

	// ErrHistoryDisabled indicates history recording is not enabled
	ErrHistoryDisabled = errors.New("history is disabled")
)
