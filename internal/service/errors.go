package service

import "errors"

var (
	ErrRegistryRequired = errors.New("registry is required")
	ErrLedgerRequired   = errors.New("custody ledger is required")
	ErrEmitterRequired  = errors.New("event emitter is required")
	ErrMetricsRequired  = errors.New("metrics are required")
)
