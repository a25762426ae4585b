package job

import (
	"LykkeLoopAPI/internal/repository"
	"context"
	"log/slog"
)

// RunUnreadReconcile recounts both unread counters of every conversation from
// the message rows. A mark-read racing a send can leave a counter off by the
// racing message; this bounds how long that lasts.
func RunUnreadReconcile(ctx context.Context, conversations repository.ConversationRepository) (int64, error) {
	drifted, err := conversations.ReconcileUnread(ctx)
	if err != nil {
		slog.Error("Failed to reconcile unread counters", "error", err)
		return 0, err
	}

	if drifted > 0 {
		slog.Warn("Corrected drifted unread counters", "conversations", drifted)
	}
	return drifted, nil
}
