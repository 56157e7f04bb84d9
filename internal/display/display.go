package display

import (
	"context"

	"github.com/aescanero/gerrit-link-router/internal/router"
)

// Displayer shows a resolved screen to a session
type Displayer interface {
	Display(ctx context.Context, decision *router.Decision) error
}

// Notifier surfaces a message to a session whose token named no screen
type Notifier interface {
	Notify(ctx context.Context, sessionID, notice string) error
}
