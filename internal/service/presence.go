package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lizzietrust/chat-backend/internal/presence"
)

// PresenceMirror is the Redis-backed copy of the registry state.
type PresenceMirror interface {
	AddConnection(ctx context.Context, userID, connID string) error
	RemoveConnection(ctx context.Context, userID, connID string) error
}

// PresenceService keeps the in-memory registry, the users collection and
// the Redis mirror in agreement, and broadcasts online/offline edges.
type PresenceService struct {
	users    UserRepo
	registry presence.Registry
	mirror   PresenceMirror
	bc       Broadcaster
	log      *zap.SugaredLogger
}

func NewPresenceService(users UserRepo, registry presence.Registry, mirror PresenceMirror, bc Broadcaster, log *zap.SugaredLogger) *PresenceService {
	return &PresenceService{users: users, registry: registry, mirror: mirror, bc: bc, log: log}
}

// Connected registers a socket. On the offline -> online edge the user is
// flagged online in Mongo and userOnline goes out to everyone.
func (s *PresenceService) Connected(ctx context.Context, userID, connID string) {
	first := s.registry.Register(userID, connID)
	if err := s.mirror.AddConnection(ctx, userID, connID); err != nil {
		s.log.Debugw("presence mirror add failed", "user_id", userID, "err", err)
	}
	if !first {
		return
	}
	if err := s.users.SetOnline(ctx, userID, true); err != nil {
		s.log.Warnw("mark online failed", "user_id", userID, "err", err)
	}
	s.bc.ToAll(EvUserOnline, payload{"user_id": userID})
}

// Disconnected drops a socket. When the last connection goes, the user is
// flagged offline with last_seen and userOffline is broadcast.
func (s *PresenceService) Disconnected(ctx context.Context, userID, connID string) {
	last := s.registry.Unregister(userID, connID)
	if err := s.mirror.RemoveConnection(ctx, userID, connID); err != nil {
		s.log.Debugw("presence mirror remove failed", "user_id", userID, "err", err)
	}
	if !last {
		return
	}
	if err := s.users.SetOnline(ctx, userID, false); err != nil {
		s.log.Warnw("mark offline failed", "user_id", userID, "err", err)
	}
	s.bc.ToAll(EvUserOffline, payload{"user_id": userID})
}

func (s *PresenceService) Online() []string {
	return s.registry.Online()
}

// Reconcile clears stale is_online flags left behind by sockets that
// vanished without a clean disconnect.
func (s *PresenceService) Reconcile(ctx context.Context) {
	fixed, err := s.users.MarkOfflineExcept(ctx, s.registry.Online())
	if err != nil {
		s.log.Warnw("presence reconcile failed", "err", err)
		return
	}
	if fixed > 0 {
		s.log.Infow("presence reconciled", "marked_offline", fixed)
	}
}

// Run executes Reconcile on the interval until the context ends.
func (s *PresenceService) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Reconcile(ctx)
		}
	}
}
