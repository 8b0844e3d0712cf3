package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/metrics"
)

// ReconcileService is the single repair path for unread-counter drift.
// The inline $inc bookkeeping and the messages collection are updated
// without a transaction, so a crash between the two writes can leave a
// counter stale; this job overwrites every counter with the value derived
// from the messages collection.
type ReconcileService struct {
	chats    ChatRepo
	messages MessageRepo
	log      *zap.SugaredLogger
}

func NewReconcileService(chats ChatRepo, messages MessageRepo, log *zap.SugaredLogger) *ReconcileService {
	return &ReconcileService{chats: chats, messages: messages, log: log}
}

// ReconcileChat re-derives every participant's unread count for one chat
// and returns how many counters were repaired.
func (s *ReconcileService) ReconcileChat(ctx context.Context, chatID string) (int, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, userID := range chat.Participants {
		derived, err := s.messages.CountUnread(ctx, chat.ID, userID)
		if err != nil {
			return repaired, err
		}
		if chat.UnreadFor(userID) == derived {
			continue
		}
		if err := s.chats.SetUnread(ctx, chat.ID, userID, derived); err != nil {
			return repaired, err
		}
		repaired++
		metrics.UnreadRepaired.Inc()
		s.log.Infow("unread counter repaired",
			"chat_id", chat.ID, "user_id", userID,
			"stored", chat.UnreadFor(userID), "derived", derived)
	}
	return repaired, nil
}

// ReconcileAll walks every chat. Errors on individual chats are logged
// and skipped so one bad document cannot stall the sweep.
func (s *ReconcileService) ReconcileAll(ctx context.Context) (int, error) {
	ids, err := s.chats.AllIDs(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range ids {
		n, err := s.ReconcileChat(ctx, id)
		total += n
		if err != nil {
			s.log.Warnw("chat reconcile failed", "chat_id", id, "err", err)
		}
	}
	return total, nil
}

// Run executes ReconcileAll on the interval until the context ends.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.ReconcileAll(ctx); err != nil {
				s.log.Warnw("unread reconcile sweep failed", "err", err)
			}
		}
	}
}
