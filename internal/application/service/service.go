// Package service holds the ficha use cases that sit around the workflow
// engine: lifecycle, notifications, dashboard aggregates and reports.
package service

import (
	"errors"

	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

var domainErrors = []error{
	domainwf.ErrNotFound,
	domainwf.ErrInvalidTransition,
	domainwf.ErrInvalidReturnStage,
	domainwf.ErrAlreadyTerminal,
	domainwf.ErrConcurrentModification,
	domainwf.ErrValidation,
	domainwf.ErrStorage,
}

// classify passes domain errors through and hides everything else behind ErrStorage
func classify(logger Logger, op string, err error, keysAndValues ...interface{}) error {
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	if logger != nil {
		logger.Error("Ficha operation failed", append([]interface{}{"op", op, "error", err}, keysAndValues...)...)
	}
	return domainwf.StorageError(op, err)
}
