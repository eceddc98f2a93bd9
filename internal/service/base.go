// Package service contains the orchestration logic backing the HTTP handlers:
// it routes operations to pools, instructs the custody ledger, and emits
// events and metrics.
package service

import "log/slog"

// BaseService provides common dependencies for service types.
type BaseService struct {
	logger *slog.Logger
}
