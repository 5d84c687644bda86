package roster

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackform/backend/pkg/queue"
)

// OutboxNotifier hands invite notifications to the Redis job queue; the bot
// worker delivers them to Telegram out of band. This keeps the transactional
// core decoupled from delivery: a queue hiccup degrades notification, not
// the invite itself.
type OutboxNotifier struct {
	queue *queue.Queue
}

// NewOutboxNotifier creates a queue-backed notifier.
func NewOutboxNotifier(q *queue.Queue) *OutboxNotifier {
	return &OutboxNotifier{queue: q}
}

// NotifyInvite enqueues a notify job carrying the invite ID so the worker
// can attach an accept/decline keyboard.
func (n *OutboxNotifier) NotifyInvite(ctx context.Context, telegramChatID int64, text string, inviteID uuid.UUID) error {
	return n.queue.EnqueueNotify(ctx, queue.NotifyPayload{
		ChatID:   telegramChatID,
		Text:     text,
		InviteID: inviteID,
	})
}
