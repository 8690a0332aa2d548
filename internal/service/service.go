// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept repository interfaces, never *sqlite.DB, so tests can swap
// in the in-memory database or a hand-written fake. They return apperror
// values for every failure a client can act on; anything else is wrapped
// with fmt.Errorf and becomes a 500 at the HTTP edge.
//
// THE DEPENDENCY CHAIN:
//
//	server.New creates:  DB → Repositories → Services → Handlers
//	At runtime:          Handler calls Service calls Repository calls DB
package service

import (
	"context"
	"log/slog"

	"github.com/caridad-unsta/caridad/internal/model"
	"github.com/caridad-unsta/caridad/internal/repository"
)

// Pagination limits shared by every listing.
const (
	DefaultListLimit   = 50
	MaxListLimit       = 500
	DefaultRecentLimit = 5
	MaxRecentLimit     = 50
)

// clampPage normalises caller-supplied pagination.
func clampPage(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

func clampRecent(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

// Notifier publishes system notifications. NotificationService implements it.
type Notifier interface {
	Publish(ctx context.Context, n *model.Notification) error
}

// notifyBestEffort publishes n and logs a failure instead of returning it.
// System notifications never block the operation that triggered them.
func notifyBestEffort(ctx context.Context, notifier Notifier, logger *slog.Logger, n *model.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Publish(ctx, n); err != nil {
		logger.Warn("system notification not published",
			slog.String("title", n.Title),
			slog.String("error", err.Error()),
		)
	}
}
