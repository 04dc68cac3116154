package store

import (
	"context"

	"github.com/cardsmith/cardsmith-api/internal/domain"
)

// ErrorLogStore defines the interface for persisted error-log rows.
type ErrorLogStore interface {
	// Create writes one error-log entry.
	Create(ctx context.Context, entry *domain.ErrorLog) error
}
