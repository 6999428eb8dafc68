// Package contextstore manages per-user conversation context: last known
// location, last coordinates, and a bounded message history. The storage
// backend is abstracted behind a small get/update contract so the
// orchestrator can be wired against an in-memory map or an external cache.
package contextstore

import (
	"context"

	"github.com/srivinod1/tomtom-maps-chatbot-sub000/pkg/models"
)

// Store is the conversation context contract, keyed by user id.
type Store interface {
	// Get returns the context for a user, creating a fresh one lazily on
	// first access.
	Get(ctx context.Context, userID string) (*models.UserContext, error)

	// Update replaces the stored context for the user.
	Update(ctx context.Context, uctx *models.UserContext) error

	// AppendMessage appends one history entry, truncating to the history
	// window.
	AppendMessage(ctx context.Context, userID string, role models.Role, text string) error
}
